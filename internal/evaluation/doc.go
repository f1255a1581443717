// Package evaluation scores the runs of a visual-inertial odometry system
// against benchmark groundtruth.
//
// A run folder holds one estimated trajectory per (sequence, iteration) and
// the scale log written by the system. The Evaluator aligns every estimate,
// fills the measurement grids of a Result, and memoizes both result variants
// (estimated scale and groundtruth scale) in the run's setup folder.
//
// Grid cells that could not be measured, or whose trajectory covered too
// little of the sequence, hold +Inf. They are never NaN.
package evaluation
