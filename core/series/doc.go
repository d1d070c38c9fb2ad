// Package series converts statistics API payloads into canonical, date-sorted
// data points.
//
// Period codes are mapped onto the first day of the period they describe:
// M01-M12 to that month, Q01-Q04 to the quarter's first month and A01 to January.
// Rows with any other code, an unparseable year or value, or a non-positive value
// are logged and dropped; they never fail the whole payload.
package series
