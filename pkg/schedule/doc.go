// Package schedule regenerates reports from saved plans on cron schedules,
// for example a quarterly risk report replayed against fresh fund data.
package schedule
