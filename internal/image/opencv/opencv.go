// Package opencv binarizes, loads and encodes pages through OpenCV.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ToMat copies a grayscale image into a single-channel Mat. The caller
// closes the Mat.
func ToMat(img *image.Gray) (gocv.Mat, error) {
	b := img.Bounds()
	pix := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		pix = append(pix, img.Pix[off:off+b.Dx()]...)
	}
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create mat: %w", err)
	}
	return mat, nil
}

// FromMat copies a single-channel Mat into a grayscale image.
func FromMat(mat gocv.Mat) (*image.Gray, error) {
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("expected 8-bit single channel mat, got %v", mat.Type())
	}
	img := image.NewGray(image.Rect(0, 0, mat.Cols(), mat.Rows()))
	copy(img.Pix, mat.ToBytes())
	return img, nil
}

// Load reads a page as 8-bit grayscale.
func Load(path string) (*image.Gray, error) {
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image %s", path)
	}
	return FromMat(mat)
}

// Binarize applies Otsu's threshold: ink becomes 0 and paper 255.
func Binarize(img *image.Gray) (*image.Gray, error) {
	mat, err := ToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(mat, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	return FromMat(binary)
}

// Encode encodes img in the format named by ext (".png", ".jpg", ...).
func Encode(img *image.Gray, ext string) ([]byte, error) {
	mat, err := ToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.FileExt(ext), mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}
