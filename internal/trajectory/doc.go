// Package trajectory reads pose tracks and aligns an estimated trajectory to
// groundtruth.
//
// Alignment follows the usual ATE procedure: estimate and groundtruth samples
// are associated by timestamp (greedy, unique, within a tolerance), then a
// least-squares rigid or similarity transform (Umeyama) maps the estimate
// positions onto groundtruth and the position RMSE is reported.
//
// The evaluation package only depends on the Adapter interface; Aligner is
// the default implementation.
package trajectory
