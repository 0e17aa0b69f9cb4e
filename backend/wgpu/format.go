package wgpu

import (
	"fmt"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/gputypes"
)

// textureFormat converts a backend format to a wgpu texture format.
func textureFormat(f backend.Format) (gputypes.TextureFormat, error) {
	switch f {
	case backend.FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case backend.FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm, nil
	default:
		return 0, fmt.Errorf("%w: unsupported format %v", backend.ErrInvalidDescriptor, f)
	}
}

// backendFormat converts a wgpu surface format back to a backend format.
func backendFormat(f gputypes.TextureFormat) (backend.Format, error) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return backend.FormatRGBA8, nil
	case gputypes.TextureFormatBGRA8Unorm:
		return backend.FormatBGRA8, nil
	default:
		return 0, fmt.Errorf("%w: unsupported surface format %v", backend.ErrInvalidDescriptor, f)
	}
}

// filterMode converts a sampler filter to a wgpu filter mode.
func filterMode(f backend.Filter) gputypes.FilterMode {
	if f == backend.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}
