// Package cuberemap remaps 360° video frames between planar sphere
// layouts. Each input frame encodes the surface of a sphere in one of
// several planar layouts (cubemap families, plane-poles families); the
// engine produces the same sphere in a different layout, optionally
// applying a stereoscopic-eye split, a yaw/pitch rotation, and a
// downsampled back-hemisphere packing for bandwidth reduction.
//
// The remapping is table-driven: on the first frame a per-output-pixel
// weight table is built by super-sampling the analytic layout mapping,
// and every subsequent frame is resampled through the table by a
// tile-parallel worker pool. This package is pure Go with no CGo
// dependencies.
//
// Basic usage:
//
//	opts := cuberemap.DefaultOptions()
//	opts.InputLayout = cuberemap.LayoutCubemap
//	opts.OutputLayout = cuberemap.LayoutCubemap32
//	r, err := cuberemap.New(opts, 384, 256, 288, 192, video.YUV420P)
//	...
//	out, err := r.Remap(in) // releases in, returns a pooled frame
package cuberemap
