// Package imaging acquires images and implements the image-level stages of
// the edge sweep: decoding, grayscale reduction, edge detection and output
// encoding.
//
// # Sources
//
// A Source yields one decoded image.Image. OpenSource picks an HTTPSource for
// http(s) locations and a FileSource otherwise. PNG, JPEG, GIF, BMP, TIFF and
// WebP are decoded. ImageCache memoises loads by location and is safe for
// concurrent use.
//
// # Coordinate System
//
// All operations preserve the bounds of their input. Pixel (0,0) is the
// top-left corner, X increases rightward and Y increases downward. Images
// with a non-zero origin (sub-images) are handled; masks share the source
// rectangle.
//
// # Edge Detection
//
// Canny is the default pure-Go detector. OpenCV, available with the gocv
// build tag, delegates to cv2.Canny. Both satisfy sweep.Detector and return
// a binary *image.Gray mask with edges at 255.
//
// # Error Handling
//
// Acquisition failures wrap ErrFetch (network, HTTP status) or ErrDecode
// (unrecognised or corrupt data). Missing files surface the os error.
package imaging
