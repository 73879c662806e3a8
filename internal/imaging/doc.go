// Package imaging loads phantom scans and provides the pixel-level operations
// around circle detection: slice access, region statistics, display crops and
// pixel probes.
//
// # Coordinate System
//
// A Slice is addressed as (row, col) with (0,0) at the top-left. Row grows
// downward and col grows rightward. Rectangles use the ((x, w), (y, h)) form
// of phantom profiles, where x/w run along rows and y/h along columns:
//
//	Rect{X: 5, W: 10, Y: 97, H: 10} // rows 5..14, cols 97..106
//
// Display images (image.Image) use the standard library's (x=col, y=row)
// convention; conversions between the two live in this package.
//
// # Formats
//
// DICOM files are parsed with github.com/suyashkumar/dicom. Each Pixel Data
// frame becomes one slice. PNG, JPEG, GIF and TIFF decode through
// image.Decode into a single 16-bit luminance slice.
//
// # Thread Safety
//
// VolumeCache is safe for concurrent use. Slices are not modified after
// loading and may be shared between goroutines.
package imaging
