//go:build rockiva

package rkiva

/*
#cgo LDFLAGS: -lrockiva -lrockit -lrknnmrt
#include <stdio.h>
#include <stdlib.h>
#include <string.h>
#include <stdint.h>
#include "rockiva/rockiva_ag_api.h"
#include "rockiva/rockiva_det_api.h"

extern void goIvaDetectResult(RockIvaDetectResult *result, int status, uintptr_t userData);
extern void goIvaReleaseFrames(RockIvaReleaseFrames *frames, uintptr_t userData);

static void ivaDetectResultCallback(const RockIvaDetectResult *result,
                                    const RockIvaExecuteStatus status, void *userData) {
	goIvaDetectResult((RockIvaDetectResult *)result, (int)status, (uintptr_t)userData);
}

static void ivaReleaseCallback(const RockIvaReleaseFrames *releaseFrames, void *userData) {
	goIvaReleaseFrames((RockIvaReleaseFrames *)releaseFrames, (uintptr_t)userData);
}

static RockIvaImageFormat ivaFormat(int f) {
	switch (f) {
	case 0: return ROCKIVA_IMAGE_FORMAT_GRAY8;
	case 1: return ROCKIVA_IMAGE_FORMAT_RGB888;
	case 2: return ROCKIVA_IMAGE_FORMAT_BGR888;
	case 3: return ROCKIVA_IMAGE_FORMAT_YUV420P_YU12;
	case 5: return ROCKIVA_IMAGE_FORMAT_YUV420SP_NV21;
	default: return ROCKIVA_IMAGE_FORMAT_YUV420SP_NV12;
	}
}

static RockIvaImageTransform ivaTransform(int t) {
	switch (t) {
	case 1: return ROCKIVA_IMAGE_TRANSFORM_FLIP_H;
	case 2: return ROCKIVA_IMAGE_TRANSFORM_FLIP_V;
	case 3: return ROCKIVA_IMAGE_TRANSFORM_ROTATE_90;
	case 4: return ROCKIVA_IMAGE_TRANSFORM_ROTATE_180;
	case 5: return ROCKIVA_IMAGE_TRANSFORM_ROTATE_270;
	default: return ROCKIVA_IMAGE_TRANSFORM_NONE;
	}
}

static RockIvaRetCode ivaCreate(RockIvaHandle *handle, const char *modelPath,
                                const char *modelName, int model, uint32_t coreMask,
                                uint32_t width, uint32_t height, int format, int transform,
                                uint32_t detX, uint32_t detY, uint32_t detW, uint32_t detH,
                                uint32_t frameRate, uintptr_t userData) {
	RockIvaInitParam initParams;
	memset(&initParams, 0, sizeof(RockIvaInitParam));

	snprintf(initParams.modelPath, ROCKIVA_PATH_LENGTH, "%s", modelPath);
	snprintf(initParams.detModelName, ROCKIVA_PATH_LENGTH, "%s", modelName);
	initParams.coreMask = coreMask;
	initParams.logLevel = ROCKIVA_LOG_ERROR;
	initParams.detModel = model == 1 ? ROCKIVA_DET_MODEL_CLS7 : ROCKIVA_DET_MODEL_PFP;
	initParams.imageInfo.width = width;
	initParams.imageInfo.height = height;
	initParams.imageInfo.imageFormat = ivaFormat(format);
	initParams.imageInfo.transformMode = ivaTransform(transform);
	initParams.detectRate = frameRate;

	RockIvaRetCode ret = ROCKIVA_Init(handle, ROCKIVA_MODE_VIDEO, &initParams, (void *)userData);
	if (ret != ROCKIVA_RET_SUCCESS) {
		return ret;
	}

	ret = ROCKIVA_SetFrameReleaseCallback(*handle, ivaReleaseCallback);
	if (ret != ROCKIVA_RET_SUCCESS) {
		ROCKIVA_Release(*handle);
		return ret;
	}

	RockIvaDetTaskParams detParams;
	memset(&detParams, 0, sizeof(RockIvaDetTaskParams));
	detParams.detObjectType |= ROCKIVA_OBJECT_TYPE_BITMASK(ROCKIVA_OBJECT_TYPE_PERSON);
	detParams.detObjectType |= ROCKIVA_OBJECT_TYPE_BITMASK(ROCKIVA_OBJECT_TYPE_FACE);
	detParams.detObjectType |= ROCKIVA_OBJECT_TYPE_BITMASK(ROCKIVA_OBJECT_TYPE_PET);
	detParams.detObjectType |= ROCKIVA_OBJECT_TYPE_BITMASK(ROCKIVA_OBJECT_TYPE_VEHICLE);
	detParams.detObjectType |= ROCKIVA_OBJECT_TYPE_BITMASK(ROCKIVA_OBJECT_TYPE_NON_VEHICLE);
	detParams.detArea.point.x = detX;
	detParams.detArea.point.y = detY;
	detParams.detArea.width = detW;
	detParams.detArea.height = detH;

	ret = ROCKIVA_DETECT_Init(*handle, &detParams, ivaDetectResultCallback);
	if (ret != ROCKIVA_RET_SUCCESS) {
		ROCKIVA_Release(*handle);
		return ret;
	}

	return ROCKIVA_RET_SUCCESS;
}

static RockIvaRetCode ivaPushFrame(RockIvaHandle handle, uint32_t width, uint32_t height,
                                   int format, int transform, uint32_t frameId, int fd) {
	RockIvaImage image;
	memset(&image, 0, sizeof(RockIvaImage));

	image.info.transformMode = ivaTransform(transform);
	image.info.width = width;
	image.info.height = height;
	image.info.imageFormat = ivaFormat(format);
	image.frameId = frameId;
	image.dataAddr = NULL;
	image.dataPhyAddr = NULL;
	image.dataFd = fd;

	return ROCKIVA_PushFrame(handle, &image, NULL);
}

static RockIvaRetCode ivaDestroy(RockIvaHandle handle) {
	ROCKIVA_DETECT_Release(handle);
	return ROCKIVA_Release(handle);
}
*/
import "C"
import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Available reports if the hardware engine was compiled in
func Available() bool {
	return true
}

// IVA is a ROCKIVA engine instance running object detection
type IVA struct {
	// handle is the C engine handle
	handle C.RockIvaHandle
	// self is the cgo handle passed to C as callback user data
	self      cgo.Handle
	cfg       Config
	onResult  ResultHandler
	onRelease ReleaseHandler
	close     sync.Once
	closeErr  error
}

// NewIVA initialises the IVA engine in video detection mode.  The result and
// release handlers are called on the engine's own thread.
func NewIVA(cfg Config, onResult ResultHandler, onRelease ReleaseHandler) (*IVA, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	iva := &IVA{
		cfg:       cfg,
		onResult:  onResult,
		onRelease: onRelease,
	}

	iva.self = cgo.NewHandle(iva)

	cModelPath := C.CString(cfg.ModelPath)
	defer C.free(unsafe.Pointer(cModelPath))

	cModelName := C.CString(cfg.ModelName)
	defer C.free(unsafe.Pointer(cModelName))

	detX, detY, detW, detH := cfg.DetectArea()

	ret := C.ivaCreate(&iva.handle, cModelPath, cModelName, C.int(cfg.Model),
		C.uint32_t(cfg.CoreMask), C.uint32_t(cfg.Width), C.uint32_t(cfg.Height),
		C.int(cfg.Format), C.int(cfg.Transform),
		C.uint32_t(detX), C.uint32_t(detY), C.uint32_t(detW), C.uint32_t(detH),
		C.uint32_t(cfg.FrameRate), C.uintptr_t(iva.self))

	if ret != C.ROCKIVA_RET_SUCCESS {
		iva.self.Delete()
		return nil, errors.Mark(
			errors.Wrapf(NewCallError("ROCKIVA_Init", ErrorCodes(ret)),
				"creating IVA engine with model %s", cfg.ModelFile()),
			ErrResource)
	}

	return iva, nil
}

// PushFrame wraps ROCKIVA_PushFrame.  The engine reads the frame through the
// DMA buffer descriptor in img.Fd.
func (iva *IVA) PushFrame(img *Image) error {

	ret := C.ivaPushFrame(iva.handle, C.uint32_t(img.Width), C.uint32_t(img.Height),
		C.int(img.Format), C.int(img.Transform), C.uint32_t(img.FrameID), C.int(img.Fd))

	if ret < 0 {
		return NewCallError("ROCKIVA_PushFrame", ErrorCodes(ret))
	}

	return nil
}

// Close releases the detection task and the engine
func (iva *IVA) Close() error {
	iva.close.Do(func() {
		ret := C.ivaDestroy(iva.handle)

		if ret != C.ROCKIVA_RET_SUCCESS {
			iva.closeErr = NewCallError("ROCKIVA_Release", ErrorCodes(ret))
		}

		iva.self.Delete()
	})

	return iva.closeErr
}
