package stitcher

import "errors"

// ErrEmptyQueue means Stitch was called with nothing queued.
var ErrEmptyQueue = errors.New("no input files to stitch")
