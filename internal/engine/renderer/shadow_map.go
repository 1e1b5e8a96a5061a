package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"
)

// ShadowMap is a depth-only framebuffer sampled with sampler2DShadow.
type ShadowMap struct {
	FBO          uint32   // Framebuffer object
	DepthTexture uint32   // Depth texture for shadow sampling
	Resolution   int32    // Shadow map resolution (width = height)
	prevViewport [4]int32 // Saved viewport for restore
}

// DefaultShadowResolution is used when the configured resolution is not positive.
const DefaultShadowResolution = 2048

// NewShadowMap creates a square shadow map.
func NewShadowMap(resolution int32) (*ShadowMap, error) {
	if resolution <= 0 {
		resolution = DefaultShadowResolution
	}

	sm := &ShadowMap{
		Resolution: resolution,
	}

	// Generate framebuffer
	gl.GenFramebuffers(1, &sm.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)

	// Generate depth texture
	gl.GenTextures(1, &sm.DepthTexture)
	gl.BindTexture(gl.TEXTURE_2D, sm.DepthTexture)

	// Allocate depth texture storage
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.DEPTH_COMPONENT24,
		resolution,
		resolution,
		0,
		gl.DEPTH_COMPONENT,
		gl.FLOAT,
		nil,
	)

	// Texture parameters for shadow mapping
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// Clamp to border with white (1.0) to avoid shadow outside frustum
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	borderColor := []float32{1.0, 1.0, 1.0, 1.0}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &borderColor[0])

	// Enable shadow comparison mode for sampler2DShadow
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	// Attach depth texture to framebuffer
	gl.FramebufferTexture2D(
		gl.FRAMEBUFFER,
		gl.DEPTH_ATTACHMENT,
		gl.TEXTURE_2D,
		sm.DepthTexture,
		0,
	)

	// No color buffer for shadow pass
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	// Check framebuffer completeness
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		// Clean up on failure
		gl.DeleteFramebuffers(1, &sm.FBO)
		gl.DeleteTextures(1, &sm.DepthTexture)
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return nil, errors.Errorf("shadow framebuffer incomplete: 0x%x", status)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return sm, nil
}

// Bind binds the shadow map framebuffer for rendering the depth pass.
// Sets the viewport to match the shadow map resolution.
func (sm *ShadowMap) Bind() {
	// Save current viewport for restore
	gl.GetIntegerv(gl.VIEWPORT, &sm.prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.Viewport(0, 0, sm.Resolution, sm.Resolution)
	gl.Clear(gl.DEPTH_BUFFER_BIT)

	// Enable depth testing
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	// Enable front-face culling to reduce shadow acne
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.FRONT)
}

// Unbind restores the default framebuffer and viewport. Meshes are drawn
// two-sided, so culling is switched off again.
func (sm *ShadowMap) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	// Restore previous viewport
	gl.Viewport(sm.prevViewport[0], sm.prevViewport[1], sm.prevViewport[2], sm.prevViewport[3])

	gl.CullFace(gl.BACK)
	gl.Disable(gl.CULL_FACE)
}

// BindTexture binds the shadow map depth texture to the specified texture unit.
// Use this when sampling the shadow map in the main render pass.
func (sm *ShadowMap) BindTexture(textureUnit uint32) {
	gl.ActiveTexture(textureUnit)
	gl.BindTexture(gl.TEXTURE_2D, sm.DepthTexture)
}

// Destroy releases all GPU resources associated with this shadow map.
func (sm *ShadowMap) Destroy() {
	if sm == nil {
		return
	}
	if sm.FBO != 0 {
		gl.DeleteFramebuffers(1, &sm.FBO)
		sm.FBO = 0
	}
	if sm.DepthTexture != 0 {
		gl.DeleteTextures(1, &sm.DepthTexture)
		sm.DepthTexture = 0
	}
}

// IsValid returns true if the shadow map was created successfully.
func (sm *ShadowMap) IsValid() bool {
	return sm != nil && sm.FBO != 0 && sm.DepthTexture != 0
}
