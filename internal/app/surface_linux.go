package app

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"

	"spinshapes/internal/logging"
)

const instanceBackends = wgpu.InstanceBackend_Vulkan

// CreateSurface wraps the window's X11 handle in a WebGPU surface. It
// returns nil on failure.
func CreateSurface(instance *wgpu.Instance, window *glfw.Window) *wgpu.Surface {
	display := glfw.GetX11Display()
	if display == nil {
		logging.Logger().Error("GetX11Display returned nil")
		return nil
	}

	return instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "spinshapes_surface",
		XlibWindow: &wgpu.SurfaceDescriptorFromXlibWindow{
			Display: unsafe.Pointer(display),
			Window:  uint32(window.GetX11Window()),
		},
	})
}
