//go:build rockiva

package rkiva

/*
#include <stdint.h>
#include "rockiva/rockiva_ag_api.h"
*/
import "C"
import (
	"runtime/cgo"
	"unsafe"
)

//export goIvaDetectResult
func goIvaDetectResult(result *C.RockIvaDetectResult, status C.int, userData C.uintptr_t) {

	iva, ok := cgo.Handle(userData).Value().(*IVA)

	if !ok || iva.onResult == nil || result == nil {
		return
	}

	// copy the C result into Go memory as it is only valid for the duration
	// of the callback
	n := int(result.objNum)
	objs := unsafe.Slice(&result.objInfo[0], n)

	res := &DetectResult{
		Objects: make([]ObjectInfo, n),
	}

	for i, obj := range objs {
		res.Objects[i] = ObjectInfo{
			Rect: Rect{
				TopLeft: Point{
					X: int(obj.rect.topLeft.x),
					Y: int(obj.rect.topLeft.y),
				},
				BottomRight: Point{
					X: int(obj.rect.bottomRight.x),
					Y: int(obj.rect.bottomRight.y),
				},
			},
			ObjID:   int(obj.objId),
			FrameID: int(obj.frameId),
			Score:   int(obj.score),
			Type:    ObjectType(obj._type),
		}
	}

	if n > 0 {
		res.FrameID = res.Objects[0].FrameID
	}

	iva.onResult(res, ExecuteStatus(status))
}

//export goIvaReleaseFrames
func goIvaReleaseFrames(frames *C.RockIvaReleaseFrames, userData C.uintptr_t) {

	iva, ok := cgo.Handle(userData).Value().(*IVA)

	if !ok || iva.onRelease == nil {
		return
	}

	var released []ReleasedFrame

	if frames != nil {
		n := int(frames.count)
		imgs := unsafe.Slice(&frames.frames[0], n)
		released = make([]ReleasedFrame, n)

		for i, img := range imgs {
			released[i] = ReleasedFrame{
				FrameID: uint32(img.frameId),
				Fd:      int(img.dataFd),
			}
		}
	}

	iva.onRelease(released)
}
