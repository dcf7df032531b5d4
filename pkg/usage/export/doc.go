// Package export writes usage records as CSV or JSON for offline analysis.
package export
