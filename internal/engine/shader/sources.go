package shader

// Attribute locations shared by every viewer program. The renderer binds
// vertex buffer attributes by name to these slots.
const (
	LocPos    = 0
	LocNor    = 1
	LocLNor   = 2
	LocWeight = 3
	LocData   = 4
)

// AttribLocations maps vertex format attribute names to shader slots.
var AttribLocations = map[string]uint32{
	"pos":    LocPos,
	"nor":    LocNor,
	"lnor":   LocLNor,
	"wd":     LocWeight,
	"weight": LocWeight,
	"data":   LocData,
}

// SurfaceVertex shades triangles with a headlight on the loop normal, or on
// the vertex normal for batches without one.
const SurfaceVertex = `#version 410 core
layout (location = 0) in vec3 pos;
layout (location = 1) in vec4 nor;
layout (location = 2) in vec4 lnor;
layout (location = 3) in float weight;

uniform mat4 uMVP;
uniform mat4 uModel;

out vec3 vNormal;
out float vWeight;
out float vHidden;

void main() {
	gl_Position = uMVP * vec4(pos, 1.0);
	vec3 n = dot(lnor.xyz, lnor.xyz) > 0.0 ? lnor.xyz : nor.xyz;
	vNormal = mat3(uModel) * n;
	vWeight = weight;
	vHidden = lnor.w < 0.0 ? 1.0 : 0.0;
}
`

// SurfaceFragment mixes the base color with the weight ramp when
// uWeightMix is set.
const SurfaceFragment = `#version 410 core
in vec3 vNormal;
in float vWeight;
in float vHidden;

uniform vec4 uColor;
uniform vec3 uLightDir;
uniform float uWeightMix;

out vec4 FragColor;

vec3 ramp(float w) {
	if (w < 0.0) return vec3(1.0, 0.0, 1.0);
	return mix(vec3(0.0, 0.0, 1.0), vec3(1.0, 0.0, 0.0), w);
}

void main() {
	if (vHidden > 0.5) discard;
	float d = max(dot(normalize(vNormal), normalize(uLightDir)), 0.0);
	vec3 base = mix(uColor.rgb, ramp(vWeight), uWeightMix);
	FragColor = vec4(base * (0.25 + 0.75 * d), uColor.a);
}
`

// OverlayVertex draws lines and points; nor.w carries the select state.
const OverlayVertex = `#version 410 core
layout (location = 0) in vec3 pos;
layout (location = 1) in vec4 nor;

uniform mat4 uMVP;
uniform float uPointSize;

out float vState;

void main() {
	gl_Position = uMVP * vec4(pos, 1.0);
	gl_Position.z -= 0.0005 * gl_Position.w;
	gl_PointSize = uPointSize;
	vState = nor.w;
}
`

// OverlayFragment colors selected elements with uSelectColor.
const OverlayFragment = `#version 410 core
in float vState;

uniform vec4 uColor;
uniform vec4 uSelectColor;

out vec4 FragColor;

void main() {
	if (vState < 0.0) discard;
	FragColor = vState > 0.5 ? uSelectColor : uColor;
}
`
