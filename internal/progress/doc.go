// Package progress renders harvest progress for operators: a terminal bar per
// period, plain per-task lines, and a Hub that fans updates out to several
// reporters in call order.
package progress
