package main

import "fmt"

// hostBuffer is a buffer kept in CPU memory. Both backends keep staging,
// vertex and index buffers this way; only textures differ between them.
type hostBuffer struct {
	desc   BufferDescriptor
	data   []byte
	mapped bool
}

type hostBufferPool struct {
	next    BufferID
	buffers map[BufferID]*hostBuffer
	limit   int // total bytes, 0 for no limit
	used    int
}

func newHostBufferPool(limit int) *hostBufferPool {
	return &hostBufferPool{
		buffers: make(map[BufferID]*hostBuffer),
		limit:   limit,
	}
}

func (p *hostBufferPool) create(desc BufferDescriptor) (BufferID, []byte, error) {
	if desc.Size <= 0 {
		return 0, nil, &VideoError{
			Operation: "buffer creation",
			Details:   fmt.Sprintf("%s: invalid size %d", desc.Label, desc.Size),
		}
	}
	if p.limit > 0 && p.used+desc.Size > p.limit {
		return 0, nil, &VideoError{
			Operation: "buffer creation",
			Details:   fmt.Sprintf("%s: %d bytes requested, %d of %d in use", desc.Label, desc.Size, p.used, p.limit),
			Err:       ErrOutOfMemory,
		}
	}
	p.next++
	buf := &hostBuffer{
		desc:   desc,
		data:   make([]byte, desc.Size),
		mapped: desc.MappedAtCreation,
	}
	p.buffers[p.next] = buf
	p.used += desc.Size
	if !desc.MappedAtCreation {
		return p.next, nil, nil
	}
	return p.next, buf.data, nil
}

func (p *hostBufferPool) unmap(id BufferID) {
	if buf, ok := p.buffers[id]; ok {
		buf.mapped = false
	}
}

func (p *hostBufferPool) destroy(id BufferID) {
	if buf, ok := p.buffers[id]; ok {
		p.used -= len(buf.data)
		delete(p.buffers, id)
	}
}

// lookup returns an unmapped buffer ready for GPU use.
func (p *hostBufferPool) lookup(id BufferID) (*hostBuffer, error) {
	buf, ok := p.buffers[id]
	if !ok {
		return nil, &VideoError{Operation: "buffer access", Details: fmt.Sprintf("unknown buffer %d", id)}
	}
	if buf.mapped {
		return nil, &VideoError{Operation: "buffer access", Details: fmt.Sprintf("buffer %d (%s) is still mapped", id, buf.desc.Label)}
	}
	return buf, nil
}

func (p *hostBufferPool) count() int {
	return len(p.buffers)
}

// validateCopy checks a buffer-to-texture copy against the source size.
func validateCopy(buf *hostBuffer, cmd CopyBufferToTextureCommand, bpp int) error {
	rowBytes := cmd.Size.Width * bpp
	if cmd.Layout.BytesPerRow < rowBytes {
		return &VideoError{
			Operation: "buffer copy",
			Details:   fmt.Sprintf("bytes per row %d smaller than row size %d", cmd.Layout.BytesPerRow, rowBytes),
		}
	}
	need := cmd.Layout.Offset + cmd.Layout.BytesPerRow*(cmd.Size.Height-1) + rowBytes
	if need > len(buf.data) {
		return &VideoError{
			Operation: "buffer copy",
			Details:   fmt.Sprintf("copy needs %d bytes, buffer %q has %d", need, buf.desc.Label, len(buf.data)),
		}
	}
	return nil
}

// copyToTexels executes a buffer-to-texture copy into texels, a tightly
// packed image described by desc.
func copyToTexels(texels []byte, desc TextureDescriptor, buf *hostBuffer, c CopyBufferToTextureCommand) error {
	bpp := desc.Format.BytesPerPixel()
	if err := validateCopy(buf, c, bpp); err != nil {
		return err
	}
	ox, oy := c.Origin[0], c.Origin[1]
	if ox+c.Size.Width > desc.Width || oy+c.Size.Height > desc.Height {
		return &VideoError{
			Operation: "buffer copy",
			Details:   fmt.Sprintf("%dx%d at (%d,%d) exceeds %s %dx%d", c.Size.Width, c.Size.Height, ox, oy, desc.Label, desc.Width, desc.Height),
		}
	}
	rowBytes := c.Size.Width * bpp
	stride := desc.Width * bpp
	for y := range c.Size.Height {
		src := c.Layout.Offset + y*c.Layout.BytesPerRow
		dst := (oy+y)*stride + ox*bpp
		copy(texels[dst:dst+rowBytes], buf.data[src:src+rowBytes])
	}
	return nil
}
