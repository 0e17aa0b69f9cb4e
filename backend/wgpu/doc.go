// Package wgpu implements backend.Device on the gogpu/wgpu HAL.
//
// The atlas is an RGBA8Unorm texture usable as a copy destination and a
// sampled texture. Frames reach it through Queue.WriteTexture. Each render
// tick records one render pass that clears the target, binds the compositor
// pipeline (sampler at binding 0, atlas view at binding 1) and draws six
// vertices without vertex or index buffers; the quad lives in the WGSL
// vertex stage. Each submission is polled to completion so a tick finishes
// before the next command on the execution queue runs. Snapshots copy the
// target into a staging buffer and read it through MapBuffer.
//
// # Devices
//
//   - [Open] selects a Vulkan adapter, preferring discrete then integrated
//     GPUs.
//   - [OpenNoop] opens the HAL noop device. It accepts every command and
//     renders nothing; used for tests and headless dry runs.
//   - [NewDeviceFromProvider] shares a host application's device through
//     gpucontext. The host keeps ownership; Close does not destroy it.
//
// The backend registers "wgpu" (Vulkan) and "wgpu-noop" on import:
//
//	import _ "github.com/gogpu/camwall/backend/wgpu"
package wgpu
