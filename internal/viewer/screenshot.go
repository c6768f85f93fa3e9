package viewer

import (
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"golang.org/x/image/bmp"
)

// screenshotName returns a file name unique to the second.
func screenshotName(mesh string, t time.Time) string {
	mesh = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, mesh)
	if mesh == "" {
		mesh = "mesh"
	}
	return fmt.Sprintf("meshview-%s-%s.bmp", mesh, t.Format("20060102-150405"))
}

func saveScreenshot(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
