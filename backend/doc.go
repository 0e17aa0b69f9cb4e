// Package backend defines the GPU capability used by the camera wall and a
// registry of implementations.
//
// A [Device] creates the atlas [Image], compiles the full-screen compositor
// [Pipeline], copies frames into the atlas and runs one draw per render tick
// into a [Surface] target. Two implementations ship with the module:
//
//   - "wgpu" (package backend/wgpu): gogpu/wgpu HAL, Vulkan or noop.
//   - "software" (package backend/software): CPU reference rasterizer.
//
// # Backend Registration
//
// Backends register themselves from init() functions:
//
//	import (
//		_ "github.com/gogpu/camwall/backend/software"
//		_ "github.com/gogpu/camwall/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default() to open the best available device, or Open() to request
// a specific backend by name:
//
//	dev, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// Devices are not safe for concurrent use; see package internal/queue.
package backend
