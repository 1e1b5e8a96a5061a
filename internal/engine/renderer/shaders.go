package renderer

const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec3 aColor;
layout (location = 3) in vec2 aUV;
layout (location = 4) in float aIntensity;

uniform mat4 uModel;
uniform mat3 uNormalMatrix;
uniform mat4 uView;
uniform mat4 uProj;
uniform mat4 uLightViewProj;

out vec3 vWorldPos;
out vec3 vNormal;
out vec3 vColor;
out vec2 vUV;
out float vIntensity;
out float vHeight;
out vec4 vLightSpacePos;

void main() {
	vec4 world = uModel * vec4(aPos, 1.0);
	vWorldPos = world.xyz;
	vNormal = uNormalMatrix * aNormal;
	vColor = aColor;
	vUV = aUV;
	vIntensity = aIntensity;
	vHeight = aPos.y;
	vLightSpacePos = uLightViewProj * world;
	gl_Position = uProj * uView * world;
}
`

const meshFragmentShader = `
#version 410 core

in vec3 vWorldPos;
in vec3 vNormal;
in vec3 vColor;
in vec2 vUV;
in float vIntensity;
in float vHeight;
in vec4 vLightSpacePos;

uniform int uColorType;
uniform vec3 uSolidColor;
uniform vec3 uScheme[3];
uniform vec2 uHeightRange;
uniform sampler2D uDiffuse;
uniform sampler2DShadow uShadowMap;
uniform bool uShadowsEnabled;
uniform bool uLit;
uniform vec3 uLightDir;
uniform mat4 uView;

out vec4 FragColor;

vec3 scheme(float t) {
	t = clamp(t, 0.0, 1.0);
	if (t < 0.5) {
		return mix(uScheme[0], uScheme[1], t * 2.0);
	}
	return mix(uScheme[1], uScheme[2], t * 2.0 - 1.0);
}

float shadowFactor(vec3 n) {
	if (!uShadowsEnabled) {
		return 1.0;
	}
	vec3 p = vLightSpacePos.xyz / vLightSpacePos.w * 0.5 + 0.5;
	if (p.z > 1.0) {
		return 1.0;
	}
	float bias = max(0.005 * (1.0 - dot(n, uLightDir)), 0.0005);
	return texture(uShadowMap, vec3(p.xy, p.z - bias));
}

void main() {
	vec3 n = normalize(vNormal);
	vec3 color = uSolidColor;
	if (uColorType == 1 || uColorType == 3 || uColorType == 4) {
		color = vColor;
	} else if (uColorType == 2) {
		color = texture(uDiffuse, vUV).rgb;
	} else if (uColorType == 5) {
		color = n * 0.5 + 0.5;
	} else if (uColorType == 6) {
		float span = uHeightRange.y - uHeightRange.x;
		color = scheme(span > 0.0 ? (vHeight - uHeightRange.x) / span : 0.5);
	} else if (uColorType == 7) {
		color = scheme(vIntensity);
	} else if (uColorType == 8) {
		color = vec3(vUV, 0.0);
	} else if (uColorType == 9) {
		color = normalize(mat3(uView) * n) * 0.5 + 0.5;
	}

	if (!uLit || length(vNormal) < 1e-6) {
		FragColor = vec4(color, 1.0);
		return;
	}
	float diffuse = max(dot(n, uLightDir), 0.0) * shadowFactor(n);
	FragColor = vec4(color * (0.3 + 0.7 * diffuse), 1.0);
}
`

const depthVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uModel;
uniform mat4 uLightViewProj;

void main() {
	gl_Position = uLightViewProj * uModel * vec4(aPos, 1.0);
}
`

const depthFragmentShader = `
#version 410 core

void main() {
}
`
