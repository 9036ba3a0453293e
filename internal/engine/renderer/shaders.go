package renderer

const meshVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec3 aColor;
layout (location = 3) in vec2 aUV;

uniform mat4 uViewProj;
uniform mat4 uModel;
uniform mat3 uNormalMatrix;

out vec3 vNormal;
out vec3 vColor;
out vec2 vUV;

void main() {
    vUV = aUV;
    vNormal = normalize(uNormalMatrix * aNormal);
    vColor = aColor;
    gl_Position = uViewProj * uModel * vec4(aPosition, 1.0);
}
`

const meshFragmentShader = `#version 410 core

in vec3 vNormal;
in vec3 vColor;
in vec2 vUV;

uniform sampler2D uBaseColor;
uniform int uHasTexture;
uniform vec3 uAmbient;
uniform vec3 uLightDir;
uniform vec3 uLightColor;

out vec4 FragColor;

void main() {
    float diffuse = max(dot(normalize(vNormal), normalize(uLightDir)), 0.0);
    vec3 light = uAmbient + uLightColor * diffuse;
    vec3 base = vColor;
    if (uHasTexture != 0) {
        base *= texture(uBaseColor, vUV).rgb;
    }
    FragColor = vec4(base * light, 1.0);
}
`
