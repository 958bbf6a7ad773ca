package rkiva

import (
	"strings"
	"syscall"
	"unsafe"

	"github.com/cockroachdb/errors"
)

const (
	// RV1106Cores is the cpu affinity mask of the single cortex A7 core
	RV1106Cores = uintptr(0b00000001)
	// RV1103Cores is the cpu affinity mask of the single cortex A7 core
	RV1103Cores = uintptr(0b00000001)

	// RK3588FastCores is the cpu affinity mask of the fast cortex A76 cores 4-7
	RK3588FastCores = uintptr(0b11110000)
	// RK3588SlowCores is the cpu affinity mask of the efficient cortex A55 cores 0-3
	RK3588SlowCores = uintptr(0b00001111)
	// RK3588AllCores is the cpu affinity mask for all cortex A76 and A55 cores 0-7
	RK3588AllCores = uintptr(0b11111111)

	// RK3576FastCores is the cpu affinity mask of the fast cortex A72 cores 4-7
	RK3576FastCores = uintptr(0b11110000)
	// RK3576SlowCores is the cpu affinity mask of the efficient cortex A53 cores 0-3
	RK3576SlowCores = uintptr(0b00001111)
	// RK3576AllCores is the cpu affinity mask for all cortex A72 and A53 cores 0-7
	RK3576AllCores = uintptr(0b11111111)

	// RK3568AllCores is the cpu affinity mask of all cortex A55 cores 0-3
	RK3568AllCores = uintptr(0b00001111)
	// RK3566AllCores is the cpu affinity mask of all cortex A55 cores 0-3
	RK3566AllCores = uintptr(0b00001111)
	// RK3562AllCores is the cpu affinity mask of all cortex A53 cores 0-3
	RK3562AllCores = uintptr(0b00001111)
)

// CoreType specifies the CPU core type
type CoreType int

const (
	FastCores CoreType = 0
	SlowCores CoreType = 1
	AllCores  CoreType = 2
)

// ParseCoreType converts fast|slow|all into a CoreType
func ParseCoreType(s string) (CoreType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast":
		return FastCores, nil
	case "slow":
		return SlowCores, nil
	case "all", "":
		return AllCores, nil
	}

	return AllCores, errors.Mark(errors.Newf("unknown core type %q, use fast, slow or all", s), ErrConfig)
}

// coreMaskList defines the CPU core masks of each platform the IVA engine
// ships on
var coreMaskList = map[string]map[CoreType]uintptr{
	"rv1103": {
		SlowCores: RV1103Cores,
		FastCores: RV1103Cores,
		AllCores:  RV1103Cores,
	},
	"rv1106": {
		SlowCores: RV1106Cores,
		FastCores: RV1106Cores,
		AllCores:  RV1106Cores,
	},
	"rk3562": {
		SlowCores: RK3562AllCores,
		FastCores: RK3562AllCores,
		AllCores:  RK3562AllCores,
	},
	"rk3566": {
		SlowCores: RK3566AllCores,
		FastCores: RK3566AllCores,
		AllCores:  RK3566AllCores,
	},
	"rk3568": {
		SlowCores: RK3568AllCores,
		FastCores: RK3568AllCores,
		AllCores:  RK3568AllCores,
	},
	"rk3576": {
		SlowCores: RK3576SlowCores,
		FastCores: RK3576FastCores,
		AllCores:  RK3576AllCores,
	},
	"rk3588": {
		SlowCores: RK3588SlowCores,
		FastCores: RK3588FastCores,
		AllCores:  RK3588AllCores,
	},
}

// SetCPUAffinity sets the CPU Affinity mask of the program to run on the specified
// cores
func SetCPUAffinity(mask uintptr) error {

	_, _, err := syscall.RawSyscall(syscall.SYS_SCHED_SETAFFINITY, 0,
		unsafe.Sizeof(mask), uintptr(unsafe.Pointer(&mask)))

	if err != 0 {
		return errors.Wrap(err, "failed to set CPU affinity")
	}

	return nil
}

// GetCPUAffinity gets the current CPU Affinity mask the program is running on
func GetCPUAffinity() (uintptr, error) {

	var mask uintptr

	_, _, err := syscall.RawSyscall(syscall.SYS_SCHED_GETAFFINITY, 0,
		unsafe.Sizeof(mask), uintptr(unsafe.Pointer(&mask)))

	if err != 0 {
		return 0, errors.Wrap(err, "failed to get CPU affinity")
	}

	return mask, nil
}

// CPUCoreMask calculates the core mask by passing in the CPU core numbers as a
// slice, eg: []int{4,5,6,7}
func CPUCoreMask(cores []int) uintptr {

	var mask uintptr

	for _, core := range cores {
		mask |= 1 << core
	}

	return mask
}

// PlatformCoreMask returns the core mask for the given platform string of
// rv1103|rv1106|rk3562|rk3566|rk3568|rk3576|rk3588
func PlatformCoreMask(platform string, ct CoreType) (uintptr, error) {

	key := strings.ToLower(strings.TrimSpace(platform))

	if masks, ok := coreMaskList[key]; ok {
		if mask, ok := masks[ct]; ok {
			return mask, nil
		}
	}

	return 0, errors.Mark(errors.Newf("unknown platform: %s", platform), ErrConfig)
}

// SetCPUAffinityByPlatform sets the CPU Affinity mask of the program to run
// on the specified CPU cores of the given platform
func SetCPUAffinityByPlatform(platform string, ct CoreType) error {

	mask, err := PlatformCoreMask(platform, ct)

	if err != nil {
		return err
	}

	return SetCPUAffinity(mask)
}
