// Command cuberemap remaps 360° content between sphere layouts from
// the command line.
//
// Usage:
//
//	cuberemap img [options] <input>       PNG/JPEG → remapped PNG/JPEG
//	cuberemap raw [options] <input.yuv>   raw planar frames → raw planar frames
//	cuberemap info [options]              print the resolved configuration
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"gopkg.in/yaml.v3"

	"github.com/deepteams/cuberemap"
	"github.com/deepteams/cuberemap/video"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "img":
		err = runImg(os.Args[2:])
	case "raw":
		err = runRaw(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "cuberemap: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "cuberemap: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  cuberemap img [options] <input>       Remap a PNG/JPEG still frame
  cuberemap raw [options] <input.yuv>   Remap raw planar frames
  cuberemap info [options]              Print the resolved configuration

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "cuberemap <command> -h" for command-specific options.
`)
}

// remapFlags registers the shared remapping options on fs and returns
// a resolver that folds an optional -config file and the explicitly
// set flags (which win) into a validated Options.
func remapFlags(fs *flag.FlagSet) func() (*cuberemap.Options, error) {
	config := fs.String("config", "", "yaml options file")
	inLayout := fs.String("input_layout", "cubemap", "input video layout")
	outLayout := fs.String("output_layout", "cubemap_32", "output video layout")
	yaw := fs.Float64("yaw", 0, "yaw rotation in degrees")
	pitch := fs.Float64("pitch", 0, "pitch rotation in degrees")
	hfov := fs.Float64("hfov", 90, "horizontal field of view (flat_fixed)")
	vfov := fs.Float64("vfov", 90, "vertical field of view (flat_fixed)")
	expand := fs.Float64("expand_coef", 1.0, "cube face expansion coefficient")
	ratio := fs.Float64("main_plane_ratio", 0.5, "main strip ratio (plane_poles)")
	wsub := fs.Int("w_subdivisions", 1, "horizontal super-sampling factor")
	hsub := fs.Int("h_subdivisions", 1, "vertical super-sampling factor")
	stereo := fs.String("stereo", "mono", "stereo packing: mono/tb/lr")
	vflip := fs.Bool("vflip", false, "right eye is vertically flipped")
	threads := fs.Int("threads", 0, "resampler workers per plane (0 = all cores)")

	return func() (*cuberemap.Options, error) {
		opts := cuberemap.DefaultOptions()
		if *config != "" {
			loaded, err := cuberemap.LoadOptions(*config)
			if err != nil {
				return nil, err
			}
			opts = loaded
		}

		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

		var err error
		if set["input_layout"] {
			if opts.InputLayout, err = cuberemap.ParseLayout(*inLayout); err != nil {
				return nil, err
			}
		}
		if set["output_layout"] {
			if opts.OutputLayout, err = cuberemap.ParseLayout(*outLayout); err != nil {
				return nil, err
			}
		}
		if set["stereo"] {
			if opts.Stereo, err = cuberemap.ParseStereoFormat(*stereo); err != nil {
				return nil, err
			}
		}
		if set["yaw"] {
			opts.Yaw = *yaw
		}
		if set["pitch"] {
			opts.Pitch = *pitch
		}
		if set["hfov"] {
			opts.HFov = *hfov
		}
		if set["vfov"] {
			opts.VFov = *vfov
		}
		if set["expand_coef"] {
			opts.ExpandCoef = *expand
		}
		if set["main_plane_ratio"] {
			opts.MainPlaneRatio = *ratio
		}
		if set["w_subdivisions"] {
			opts.WSubdivisions = *wsub
		}
		if set["h_subdivisions"] {
			opts.HSubdivisions = *hsub
		}
		if set["vflip"] {
			opts.VFlip = *vflip
		}
		if set["threads"] {
			opts.Threads = *threads
		}

		if err := opts.Validate(); err != nil {
			return nil, err
		}
		return opts, nil
	}
}

// parseSize parses a "WxH" dimension string.
func parseSize(s string) (w, h int, err error) {
	if n, _ := fmt.Sscanf(s, "%dx%d", &w, &h); n != 2 || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	return w, h, nil
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned behind a no-op Close, so closing
// the reader leaves stdin open.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// --- img ---

func runImg(args []string) error {
	fs := flag.NewFlagSet("img", flag.ContinueOnError)
	resolve := remapFlags(fs)
	outSize := fs.String("out_size", "", "output size WxH (default: input size)")
	resize := fs.String("resize", "", "pre-scale input to WxH before remapping")
	output := fs.String("o", "", `output path (default: <input>_remap.png, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("img: missing input file\nUsage: cuberemap img [options] <input>")
	}
	inputPath := fs.Arg(0)

	opts, err := resolve()
	if err != nil {
		return err
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("img: decoding input: %w", err)
	}

	if *resize != "" {
		w, h, err := parseSize(*resize)
		if err != nil {
			return fmt.Errorf("img: %w", err)
		}
		scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		img = scaled
	}

	frame, err := imageToFrame(img)
	if err != nil {
		return fmt.Errorf("img: %w", err)
	}

	outW, outH := frame.Width, frame.Height
	if *outSize != "" {
		if outW, outH, err = parseSize(*outSize); err != nil {
			return fmt.Errorf("img: %w", err)
		}
	}

	r, err := cuberemap.New(opts, frame.Width, frame.Height, outW, outH, frame.Format)
	if err != nil {
		return err
	}
	out, err := r.Remap(frame)
	if err != nil {
		return err
	}
	defer out.Unref()

	result := frameToImage(out)

	if *output == "-" {
		return png.Encode(os.Stdout, result)
	}
	outputPath := *output
	if outputPath == "" {
		if inputPath == "-" {
			outputPath = "output_remap.png"
		} else {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + "_remap.png"
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := encodeImage(f, result, outputPath); err != nil {
		f.Close()
		os.Remove(outputPath)
		return fmt.Errorf("img: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fmt.Fprintf(os.Stderr, "Remapped %s → %s (%s %s → %s, %dx%d)\n",
		inputPath, outputPath, out.Format, opts.InputLayout, opts.OutputLayout, out.Width, out.Height)
	return nil
}

// encodeImage writes img as PNG or JPEG depending on the extension.
func encodeImage(w io.Writer, img image.Image, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	default:
		return png.Encode(w, img)
	}
}

// imageToFrame copies a decoded image into a planar frame. YCbCr and
// Gray images map onto their planar formats directly; everything else
// goes through a per-pixel conversion to 4:4:4.
func imageToFrame(img image.Image) (*video.Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		f, err := video.NewFrame(video.GRAY8, w, h)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			copy(f.Data[0][y*f.Linesize[0]:y*f.Linesize[0]+w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return f, nil
	case *image.YCbCr:
		var format video.PixelFormat
		switch src.SubsampleRatio {
		case image.YCbCrSubsampleRatio420:
			format = video.YUV420P
		case image.YCbCrSubsampleRatio422:
			format = video.YUV422P
		case image.YCbCrSubsampleRatio444:
			format = video.YUV444P
		default:
			return nil, fmt.Errorf("unsupported chroma subsampling %v", src.SubsampleRatio)
		}
		f, err := video.NewFrame(format, w, h)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			copy(f.Data[0][y*f.Linesize[0]:y*f.Linesize[0]+w], src.Y[y*src.YStride:y*src.YStride+w])
		}
		cw, ch := format.PlaneDims(1, w, h)
		for y := 0; y < ch; y++ {
			copy(f.Data[1][y*f.Linesize[1]:y*f.Linesize[1]+cw], src.Cb[y*src.CStride:y*src.CStride+cw])
			copy(f.Data[2][y*f.Linesize[2]:y*f.Linesize[2]+cw], src.Cr[y*src.CStride:y*src.CStride+cw])
		}
		return f, nil
	}

	f, err := video.NewFrame(video.YUV444P, w, h)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bb>>8))
			off := y*f.Linesize[0] + x
			f.Data[0][off] = yy
			f.Data[1][off] = cb
			f.Data[2][off] = cr
		}
	}
	return f, nil
}

// frameToImage copies a planar frame back into an image.
func frameToImage(f *video.Frame) image.Image {
	if f.Format == video.GRAY8 {
		img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+f.Width], f.Data[0][y*f.Linesize[0]:y*f.Linesize[0]+f.Width])
		}
		return img
	}

	var ratio image.YCbCrSubsampleRatio
	switch f.Format {
	case video.YUV420P, video.YUVA420P:
		ratio = image.YCbCrSubsampleRatio420
	case video.YUV422P, video.YUVA422P:
		ratio = image.YCbCrSubsampleRatio422
	default:
		ratio = image.YCbCrSubsampleRatio444
	}
	img := image.NewYCbCr(image.Rect(0, 0, f.Width, f.Height), ratio)
	for y := 0; y < f.Height; y++ {
		copy(img.Y[y*img.YStride:y*img.YStride+f.Width], f.Data[0][y*f.Linesize[0]:y*f.Linesize[0]+f.Width])
	}
	cw, ch := f.Format.PlaneDims(1, f.Width, f.Height)
	for y := 0; y < ch; y++ {
		copy(img.Cb[y*img.CStride:y*img.CStride+cw], f.Data[1][y*f.Linesize[1]:y*f.Linesize[1]+cw])
		copy(img.Cr[y*img.CStride:y*img.CStride+cw], f.Data[2][y*f.Linesize[2]:y*f.Linesize[2]+cw])
	}
	return img
}

// --- raw ---

func runRaw(args []string) error {
	fs := flag.NewFlagSet("raw", flag.ContinueOnError)
	resolve := remapFlags(fs)
	size := fs.String("size", "", "input frame size WxH (required)")
	outSize := fs.String("out_size", "", "output size WxH (default: input size)")
	pixfmt := fs.String("fmt", "yuv420p", "planar pixel format")
	output := fs.String("o", "", `output path (default: <input>_remap.yuv, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("raw: missing input file\nUsage: cuberemap raw [options] <input.yuv>")
	}
	inputPath := fs.Arg(0)

	opts, err := resolve()
	if err != nil {
		return err
	}
	if *size == "" {
		return fmt.Errorf("raw: -size is required")
	}
	inW, inH, err := parseSize(*size)
	if err != nil {
		return fmt.Errorf("raw: %w", err)
	}
	outW, outH := inW, inH
	if *outSize != "" {
		if outW, outH, err = parseSize(*outSize); err != nil {
			return fmt.Errorf("raw: %w", err)
		}
	}
	format, err := video.ParsePixelFormat(*pixfmt)
	if err != nil {
		return err
	}

	r, err := cuberemap.New(opts, inW, inH, outW, outH, format)
	if err != nil {
		return err
	}

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	outputPath := *output
	if outputPath != "-" {
		if outputPath == "" {
			base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
			outputPath = base + "_remap.yuv"
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	frames := 0
	for {
		frame, err := readRawFrame(in, format, inW, inH)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("raw: frame %d: %w", frames, err)
		}
		remapped, err := r.Remap(frame)
		if err != nil {
			return fmt.Errorf("raw: frame %d: %w", frames, err)
		}
		err = writeRawFrame(out, remapped)
		remapped.Unref()
		if err != nil {
			return fmt.Errorf("raw: frame %d: %w", frames, err)
		}
		frames++
	}

	fmt.Fprintf(os.Stderr, "Remapped %d frame(s) %s → %s (%dx%d → %dx%d %s)\n",
		frames, inputPath, outputPath, inW, inH, outW, outH, format)
	return nil
}

// readRawFrame reads one tightly-packed planar frame, returning io.EOF
// on a clean end of stream.
func readRawFrame(rd io.Reader, format video.PixelFormat, w, h int) (*video.Frame, error) {
	f, err := video.NewFrame(format, w, h)
	if err != nil {
		return nil, err
	}
	d := format.Desc()
	for p := 0; p < d.PlaneCount; p++ {
		if _, err := io.ReadFull(rd, f.Data[p]); err != nil {
			f.Unref()
			if p == 0 && err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading plane %d: %w", p, err)
		}
	}
	return f, nil
}

// writeRawFrame writes the frame's planes back to back.
func writeRawFrame(w io.Writer, f *video.Frame) error {
	d := f.Format.Desc()
	for p := 0; p < d.PlaneCount; p++ {
		if _, err := w.Write(f.Data[p]); err != nil {
			return fmt.Errorf("writing plane %d: %w", p, err)
		}
	}
	return nil
}

// --- info ---

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	resolve := remapFlags(fs)
	size := fs.String("size", "", "input frame size WxH")
	outSize := fs.String("out_size", "", "output size WxH (default: input size)")
	pixfmt := fs.String("fmt", "yuv420p", "planar pixel format")

	if err := fs.Parse(args); err != nil {
		return err
	}

	opts, err := resolve()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(opts)
	if err != nil {
		return err
	}
	fmt.Printf("# resolved configuration\n%s", data)

	if *size == "" {
		return nil
	}
	inW, inH, err := parseSize(*size)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	outW, outH := inW, inH
	if *outSize != "" {
		if outW, outH, err = parseSize(*outSize); err != nil {
			return fmt.Errorf("info: %w", err)
		}
	}
	format, err := video.ParsePixelFormat(*pixfmt)
	if err != nil {
		return err
	}
	d := format.Desc()

	fmt.Printf("\n# derived geometry\n")
	fmt.Printf("resize: %dx%d -> %dx%d\n", inW, inH, outW, outH)
	fmt.Printf("planes: %d\n", d.PlaneCount)
	for p := 0; p < d.PlaneCount; p++ {
		pw, ph := format.PlaneDims(p, outW, outH)
		tiles := ((pw + 15) / 16) * ((ph + 15) / 16)
		fmt.Printf("plane %d: %dx%d, %d tiles\n", p, pw, ph, tiles)
	}
	subs := opts.WSubdivisions * opts.HSubdivisions
	fmt.Printf("sub-samples per pixel: %d\n", subs)
	return nil
}
