package gpu

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/impostor/impostorrt/rt/sample"
	"github.com/gekko3d/impostor/impostorrt/rt/shaders"
)

// QuadVertex matches the WGSL VertexInput.
type QuadVertex struct {
	UV [2]float32
}

// UnitQuad is two triangles covering UV [0,1]², top-left origin.
var UnitQuad = []QuadVertex{
	{UV: [2]float32{0, 0}}, {UV: [2]float32{0, 1}}, {UV: [2]float32{1, 1}},
	{UV: [2]float32{0, 0}}, {UV: [2]float32{1, 1}}, {UV: [2]float32{1, 0}},
}

// ImpostorRenderPass draws instanced impostor billboards sampling one atlas.
type ImpostorRenderPass struct {
	Device         *wgpu.Device
	Pipeline       *wgpu.RenderPipeline
	BindGroup      *wgpu.BindGroup
	ParamsBuf      *wgpu.Buffer
	QuadBuffer     *wgpu.Buffer
	InstanceBuffer *wgpu.Buffer
	InstanceCap    uint32
	InstanceCount  uint32
}

func NewImpostorRenderPass(device *wgpu.Device, format wgpu.TextureFormat) (*ImpostorRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ImpostorShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ImpostorWGSL},
	})
	if err != nil {
		return nil, err
	}

	instanceAttrs := make([]wgpu.VertexAttribute, 7)
	for i := range instanceAttrs {
		instanceAttrs[i] = wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x4,
			Offset:         uint64(i * 16),
			ShaderLocation: uint32(i + 1),
		}
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "ImpostorPipeline",
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(QuadVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(ImpostorInstance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes:  instanceAttrs,
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					// fs_main writes premultiplied color.
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		// Instances are drawn back to front instead of depth tested.
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	p := &ImpostorRenderPass{Device: device, Pipeline: pipeline}

	qSize := uint64(len(UnitQuad) * int(unsafe.Sizeof(QuadVertex{})))
	p.QuadBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ImpostorQuadBuffer",
		Size:  qSize,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	device.GetQueue().WriteBuffer(p.QuadBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&UnitQuad[0])), qSize))

	p.ParamsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ImpostorParams",
		Size:  ParamsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetAtlas rebuilds the bind group for a new atlas upload.
func (p *ImpostorRenderPass) SetAtlas(t *AtlasTextures) error {
	p.ClearAtlas()
	bg, err := p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ImpostorBG",
		Layout: p.Pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.ParamsBuf, Size: ParamsSize},
			{Binding: 1, TextureView: t.ColorView},
			{Binding: 2, TextureView: t.NormalView},
			{Binding: 3, Sampler: t.Sampler},
		},
	})
	if err != nil {
		return err
	}
	p.BindGroup = bg
	return nil
}

// ClearAtlas drops the bind group. Draw is a no-op until the next SetAtlas.
func (p *ImpostorRenderPass) ClearAtlas() {
	if p.BindGroup != nil {
		p.BindGroup.Release()
		p.BindGroup = nil
	}
}

// Ready reports whether Draw will issue a draw call.
func (p *ImpostorRenderPass) Ready() bool {
	return p.InstanceBuffer != nil && p.BindGroup != nil && p.InstanceCount > 0
}

// Update uploads the frame parameters and the instances, which must already
// be sorted back to front.
func (p *ImpostorRenderPass) Update(queue *wgpu.Queue, viewProj mgl32.Mat4, s sample.MaterialState, instances []ImpostorInstance) {
	queue.WriteBuffer(p.ParamsBuf, 0, PackParams(viewProj, s))

	p.InstanceCount = uint32(len(instances))
	if len(instances) == 0 {
		return
	}
	sizeBytes := uint64(len(instances) * int(unsafe.Sizeof(ImpostorInstance{})))
	if p.InstanceBuffer == nil || p.InstanceCap < p.InstanceCount {
		if p.InstanceBuffer != nil {
			p.InstanceBuffer.Release()
		}
		p.InstanceCap = p.InstanceCount + 128
		var err error
		p.InstanceBuffer, err = p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "ImpostorInstanceBuffer",
			Size:  uint64(p.InstanceCap) * uint64(unsafe.Sizeof(ImpostorInstance{})),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
	}
	queue.WriteBuffer(p.InstanceBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&instances[0])), sizeBytes))
}

func (p *ImpostorRenderPass) Draw(pass *wgpu.RenderPassEncoder) {
	if !p.Ready() {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.SetVertexBuffer(0, p.QuadBuffer, 0, p.QuadBuffer.GetSize())
	pass.SetVertexBuffer(1, p.InstanceBuffer, 0, p.InstanceBuffer.GetSize())
	pass.Draw(uint32(len(UnitQuad)), p.InstanceCount, 0, 0)
}

func (p *ImpostorRenderPass) Release() {
	for _, b := range []*wgpu.Buffer{p.QuadBuffer, p.InstanceBuffer, p.ParamsBuf} {
		if b != nil {
			b.Release()
		}
	}
	p.QuadBuffer, p.InstanceBuffer, p.ParamsBuf = nil, nil, nil
	p.ClearAtlas()
	if p.Pipeline != nil {
		p.Pipeline.Release()
		p.Pipeline = nil
	}
}
