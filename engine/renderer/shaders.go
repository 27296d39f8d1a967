package renderer

// Pipeline keys for the built-in visualization pipelines.
const (
	PipelineKeyBackground = "background"
	PipelineKeyPointField = "pointfield"
	PipelineKeyGlowRing   = "glowring"
	PipelineKeyMarkers    = "markers"
	PipelineKeyGlyph      = "glyph"
)

// wgslGlobals is the shared Globals uniform block prepended to every shader.
// The layout must match the 96-byte globals struct uploaded by the scene.
const wgslGlobals = `
struct Globals {
    view_proj: mat4x4<f32>,
    time: f32,
    bass: f32,
    mid: f32,
    high: f32,
    aspect: f32,
    pad0: f32,
    pad1: f32,
    pad2: f32,
}

@group(0) @binding(0) var<uniform> globals: Globals;
`

// Background: fullscreen triangle, vertical gradient with a bass-driven floor glow.
const backgroundSrc = wgslGlobals + `
struct VSOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VSOut {
    let xy = vec2<f32>(f32((vi << 1u) & 2u), f32(vi & 2u)) * 2.0 - 1.0;
    var out: VSOut;
    out.position = vec4<f32>(xy, 0.0, 1.0);
    out.uv = xy * 0.5 + 0.5;
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    // The gradient axis rotates at a constant rate; elapsed time accumulates
    // only across rendered frames, so drive never changes the rate.
    let spin = globals.time * 0.015;
    let centered = in.uv - 0.5;
    let axis = centered.x * sin(spin) + centered.y * cos(spin) + 0.5;
    let floor_color = vec3<f32>(0.030, 0.016, 0.070) * (1.0 + globals.bass * 0.8);
    let sky_color = vec3<f32>(0.006, 0.008, 0.022);
    let drift = 0.02 * sin(globals.time * 0.11 + in.uv.x * 3.0);
    let color = mix(floor_color, sky_color, clamp(axis + drift, 0.0, 1.0));
    return vec4<f32>(color, 1.0);
}
`

// Point field: camera-facing quads expanded from a storage buffer of
// vec4(x, y, z, size) particles, drawn additively with a soft radial falloff.
const pointFieldSrc = wgslGlobals + `
@group(1) @binding(0) var<storage, read> particles: array<vec4<f32>>;

struct VSOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) fade: f32,
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VSOut {
    var corners = array<vec2<f32>, 6>(
        vec2<f32>(-1.0, -1.0), vec2<f32>(1.0, -1.0), vec2<f32>(-1.0, 1.0),
        vec2<f32>(-1.0, 1.0), vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0),
    );
    let p = particles[ii];
    let corner = corners[vi];

    var clip = globals.view_proj * vec4<f32>(p.xyz, 1.0);
    let size = p.w * (0.6 + globals.bass * 1.4);
    clip = vec4<f32>(clip.xy + corner * size * vec2<f32>(1.0 / globals.aspect, 1.0), clip.zw);

    var out: VSOut;
    out.position = clip;
    out.uv = corner;
    // Points respawning far away fade in as they approach.
    out.fade = clamp(1.0 - p.z * 0.04, 0.2, 1.0);
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    let d = length(in.uv);
    let falloff = max(0.0, 1.0 - d);
    let energy = (globals.bass + globals.mid + globals.high) / 3.0;
    let cold = vec3<f32>(0.25, 0.45, 1.00);
    let warm = vec3<f32>(1.00, 0.42, 0.24);
    let color = mix(cold, warm, globals.bass);
    let intensity = (0.25 + 0.75 * energy) * falloff * falloff * in.fade;
    return vec4<f32>(color * intensity, intensity);
}
`

// Glow ring: a screen-space quad whose fragment shader draws a gaussian ring
// that dilates with bass, drawn additively over the point field.
const glowRingSrc = wgslGlobals + `
struct RingParams {
    base_radius: f32,
    thickness: f32,
    intensity: f32,
    pad0: f32,
    color: vec4<f32>,
}

@group(1) @binding(0) var<uniform> ring: RingParams;

struct VSOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32) -> VSOut {
    var corners = array<vec2<f32>, 4>(
        vec2<f32>(-1.0, -1.0), vec2<f32>(1.0, -1.0),
        vec2<f32>(-1.0, 1.0), vec2<f32>(1.0, 1.0),
    );
    let corner = corners[vi];
    var out: VSOut;
    out.position = vec4<f32>(corner, 0.0, 1.0);
    out.uv = corner * vec2<f32>(globals.aspect, 1.0);
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    let radius = ring.base_radius * (1.0 + globals.bass * 0.35);
    let d = length(in.uv) - radius;
    let t = max(ring.thickness, 0.001);
    // Three bright lobes circle the ring at a constant angular rate,
    // independent of drive.
    let theta = atan2(in.uv.y, in.uv.x);
    let swirl = 1.0 + 0.12 * sin(theta * 3.0 - globals.time * 0.3);
    let glow = exp(-(d * d) / (t * t)) * ring.intensity * (0.3 + 0.7 * globals.bass) * swirl;
    return vec4<f32>(ring.color.rgb * glow, glow);
}
`

// Orbiting markers: camera-facing diamonds expanded from a storage buffer of
// vec4(x, y, z, scale) transforms, pulsing with the high band.
const markersSrc = wgslGlobals + `
@group(1) @binding(0) var<storage, read> transforms: array<vec4<f32>>;

struct MarkerParams {
    color: vec4<f32>,
    glow: f32,
    pad0: f32,
    pad1: f32,
    pad2: f32,
}

@group(1) @binding(1) var<uniform> marker: MarkerParams;

struct VSOut {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VSOut {
    var corners = array<vec2<f32>, 6>(
        vec2<f32>(-1.0, -1.0), vec2<f32>(1.0, -1.0), vec2<f32>(-1.0, 1.0),
        vec2<f32>(-1.0, 1.0), vec2<f32>(1.0, -1.0), vec2<f32>(1.0, 1.0),
    );
    let t = transforms[ii];
    let corner = corners[vi];

    var clip = globals.view_proj * vec4<f32>(t.xyz, 1.0);
    let size = t.w * (1.0 + globals.high * 0.8);
    clip = vec4<f32>(clip.xy + corner * size * vec2<f32>(1.0 / globals.aspect, 1.0), clip.zw);

    var out: VSOut;
    out.position = clip;
    out.uv = corner;
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    // Diamond falloff: sharp core with a glow skirt.
    let d = abs(in.uv.x) + abs(in.uv.y);
    let core = max(0.0, 1.0 - d * 2.0);
    let skirt = max(0.0, 1.0 - d) * marker.glow;
    let intensity = (core + skirt * 0.5) * (0.35 + 0.65 * globals.high);
    return vec4<f32>(marker.color.rgb * intensity, intensity);
}
`

// Glyph mesh: extruded dot-matrix boxes with a fixed-direction lambert term
// and an emissive term driven by the bass band.
const glyphSrc = wgslGlobals + `
struct GlyphParams {
    model: mat4x4<f32>,
    color: vec4<f32>,
    emissive: f32,
    pad0: f32,
    pad1: f32,
    pad2: f32,
}

@group(1) @binding(0) var<uniform> glyph: GlyphParams;

struct VSOut {
    @builtin(position) position: vec4<f32>,
    @location(0) normal: vec3<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) normal: vec3<f32>) -> VSOut {
    var out: VSOut;
    let world = glyph.model * vec4<f32>(position, 1.0);
    out.position = globals.view_proj * world;
    // Model matrix carries only rotation and uniform scale.
    out.normal = normalize((glyph.model * vec4<f32>(normal, 0.0)).xyz);
    return out;
}

@fragment
fn fs_main(in: VSOut) -> @location(0) vec4<f32> {
    let light_dir = normalize(vec3<f32>(0.35, 0.8, 0.55));
    let lambert = max(dot(normalize(in.normal), light_dir), 0.0);
    let lit = glyph.color.rgb * (0.18 + 0.82 * lambert);
    let glow = glyph.color.rgb * glyph.emissive * (0.4 + 0.6 * globals.bass);
    return vec4<f32>(lit + glow, glyph.color.a);
}
`

// LayerPipelineSpecs returns the pipeline specs for every built-in layer.
// Registering all of them up front keeps layer Init free of compile stalls.
func LayerPipelineSpecs() []PipelineSpec {
	return []PipelineSpec{
		{
			Key:      PipelineKeyBackground,
			Source:   backgroundSrc,
			Blend:    BlendOpaque,
			Vertex:   VertexLayoutNone,
			Topology: TopologyTriangleList,
			Groups:   [][]BindingKind{{BindingUniform}},
		},
		{
			Key:      PipelineKeyPointField,
			Source:   pointFieldSrc,
			Blend:    BlendAdditive,
			Vertex:   VertexLayoutNone,
			Topology: TopologyTriangleList,
			Groups:   [][]BindingKind{{BindingUniform}, {BindingStorage}},
		},
		{
			Key:      PipelineKeyGlowRing,
			Source:   glowRingSrc,
			Blend:    BlendAdditive,
			Vertex:   VertexLayoutNone,
			Topology: TopologyTriangleStrip,
			Groups:   [][]BindingKind{{BindingUniform}, {BindingUniform}},
		},
		{
			Key:      PipelineKeyMarkers,
			Source:   markersSrc,
			Blend:    BlendAdditive,
			Vertex:   VertexLayoutNone,
			Topology: TopologyTriangleList,
			Groups:   [][]BindingKind{{BindingUniform}, {BindingStorage, BindingUniform}},
		},
		{
			Key:      PipelineKeyGlyph,
			Source:   glyphSrc,
			Blend:    BlendAlpha,
			Vertex:   VertexLayoutPosNormal,
			Topology: TopologyTriangleList,
			Groups:   [][]BindingKind{{BindingUniform}, {BindingUniform}},
		},
	}
}
