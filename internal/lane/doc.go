// Package lane owns the per-frame lane estimation core.
//
// Responsibilities: segment filtering and weighting, angle clustering,
// left/right lane selection, temporal tracker state, and the steering-error
// estimate derived from the selected lanes.
// Key types: Segment, Line, Cluster, TrackerState, Detector.
//
// Dependency rule: lane depends only on internal/config,
// internal/disjointset and internal/timeutil. Image processing
// (preprocessing, Hough extraction, overlay) lives in internal/vision;
// persistence lives in internal/runlog.
// No SQL or OpenCV code is allowed in this package.
package lane
