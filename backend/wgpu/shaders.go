package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/quad_vertex.wgsl
var quadVertexWGSL string

//go:embed shaders/quad_fragment.wgsl
var quadFragmentWGSL string

// Entry points of the compositor stages.
const (
	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// compileWGSL compiles WGSL source to SPIR-V words with naga.
func compileWGSL(name, src string) ([]uint32, error) {
	if src == "" {
		return nil, fmt.Errorf("%s shader source is empty", name)
	}
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", name, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile %s shader: SPIR-V size %d is not word aligned", name, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// createShaderModule compiles src and creates a HAL module from it.
func createShaderModule(device hal.Device, name, src string) (hal.ShaderModule, error) {
	words, err := compileWGSL(name, src)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "camwall_" + name,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s shader module: %w", name, err)
	}
	return module, nil
}
