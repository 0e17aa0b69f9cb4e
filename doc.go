// Package camwall composites many live camera streams into one video wall.
//
// # Overview
//
// Every stream owns a fixed cell of a shared atlas texture. One writer per
// stream copies incoming frames into its cell; a render loop clocked by the
// display refresh draws the whole atlas to the screen with a full-screen
// quad. Writers and the render loop run at independent rates and never wait
// for each other, except through the single execution queue that carries
// all device commands.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/camwall"
//	    "github.com/gogpu/camwall/frame"
//	    "github.com/gogpu/camwall/render"
//	    _ "github.com/gogpu/camwall/backend/software"
//	)
//
//	w, err := camwall.NewWithBackend("", camwall.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.AcquireStreams(ctx, frame.PatternCamera{}, 30); err != nil {
//	    log.Fatal(err)
//	}
//	surface, _ := w.CreateSurface(1600, 1200)
//	refresh := render.NewTickerRefresh(60)
//	defer refresh.Stop()
//	err = w.Run(ctx, surface, refresh)
//
// # Layout
//
// Stream id maps to grid column id mod CellsPerRow and row id div
// CellsPerRow. The atlas is CellsPerRow*CellWidth by
// ceil(N/CellsPerRow)*CellHeight pixels. See [Layout].
//
// # Frames of the wrong size
//
// Frames are scaled to the cell with golang.org/x/image/draw by default
// ([ResampleScale]). With [ResampleReject] such frames are dropped and the
// cell keeps its content.
//
// # Backends
//
//   - backend/software: CPU reference renderer, always available
//   - backend/wgpu: gogpu/wgpu HAL (Vulkan, or the noop device)
//
// Backends register themselves on import; [NewWithBackend] with an empty
// name picks wgpu when it can open a device and software otherwise.
//
// # Logging
//
// camwall is silent by default. [SetLogger] enables structured logging for
// the root package, frame, render and the active devices.
package camwall
