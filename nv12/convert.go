package nv12

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/swdee/go-rkiva/logger"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// supportedExt lists the image types ConvertDir reads
var supportedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// IsImage reports if name has a supported image extension, case insensitive
func IsImage(name string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(name))]
}

// DecodeFile reads an image file of any supported type
func DecodeFile(path string) (image.Image, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, errors.Wrapf(err, "opening image %s", path)
	}

	defer f.Close()

	img, _, err := image.Decode(f)

	if err != nil {
		return nil, errors.Wrapf(err, "decoding image %s", path)
	}

	return img, nil
}

// ConvertFile converts the image at src into an NV12 file at dst
func ConvertFile(src, dst string, width, height int) error {

	img, err := DecodeFile(src)

	if err != nil {
		return err
	}

	data, err := FromImage(img, width, height)

	if err != nil {
		return err
	}

	return errors.Wrapf(os.WriteFile(dst, data, 0o644), "writing %s", dst)
}

// ConvertDir converts every supported image in inDir into a .yuv file of the
// same stem in outDir.  Images that can't be decoded are logged and skipped.
// The number of files written is returned.
func ConvertDir(inDir, outDir string, width, height int, log *zap.SugaredLogger) (int, error) {

	if log == nil {
		log = logger.Component("nv12")
	}

	entries, err := os.ReadDir(inDir)

	if err != nil {
		return 0, errors.Wrapf(err, "reading directory %s", inDir)
	}

	var images []string

	for _, e := range entries {
		if !e.IsDir() && IsImage(e.Name()) {
			images = append(images, e.Name())
		}
	}

	if len(images) == 0 {
		return 0, errors.Newf("no supported image files found in %s", inDir)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "creating output directory %s", outDir)
	}

	log.Infow("converting images", "count", len(images), "width", width, "height", height)

	converted := 0

	for _, name := range images {

		src := filepath.Join(inDir, name)
		dst := filepath.Join(outDir, strings.TrimSuffix(name, filepath.Ext(name))+".yuv")

		if err := ConvertFile(src, dst, width, height); err != nil {
			log.Warnw("cannot convert image", logger.FieldFile, src, logger.FieldError, err)
			continue
		}

		log.Debugw("converted", logger.FieldFile, src, "output", dst)
		converted++
	}

	log.Infow("conversion finished", "converted", converted, "output", outDir)

	return converted, nil
}
