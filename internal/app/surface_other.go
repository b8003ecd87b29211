//go:build !darwin && !linux && !js

package app

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spinshapes/internal/logging"
)

const instanceBackends = wgpu.InstanceBackend_Vulkan

// CreateSurface is not wired up on this platform; use the gl backend.
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) *wgpu.Surface {
	logging.Logger().Error("WebGPU surfaces are not supported here", "os", runtime.GOOS)
	return nil
}
