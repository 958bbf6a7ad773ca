/*
go-rkiva provides Go bindings and a test harness for the Rockchip IVA
(intelligent video analytics) object detection engine found in the RKMPI
SDK for the RV1103/RV1106 and RK35xx series of SoC's.

The engine is driven through the ROCKIVA C API for inference and the RK_MPI
media buffer API for the DMA backed frame memory the NPU reads from.  The cgo
bindings are only compiled when building with the "rockiva" build tag, eg:

	go build -tags rockiva ./example/npu-test

Without the tag the hardware entry points return ErrUnsupported and the
simulated engine in the sim subpackage can be used to exercise the harness
on any machine.

See the example/npu-test command for the frame pump harness, result log
analysis and frame conversion tools.
*/
package rkiva
