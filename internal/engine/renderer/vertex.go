package renderer

import (
	"unsafe"

	"github.com/Faultbox/quadterrain/internal/quadtree"
)

// vertexStride is the byte size of one quadtree.Vertex in the VBO.
const vertexStride = int32(unsafe.Sizeof(quadtree.Vertex{}))

type vertexAttribute struct {
	location uint32
	size     int32
	offset   uintptr
}

// vertexAttributes matches the layout locations in vertexShader.
var vertexAttributes = []vertexAttribute{
	{location: 0, size: 3, offset: unsafe.Offsetof(quadtree.Vertex{}.Position)},
	{location: 1, size: 3, offset: unsafe.Offsetof(quadtree.Vertex{}.Normal)},
	{location: 2, size: 2, offset: unsafe.Offsetof(quadtree.Vertex{}.UV)},
	{location: 3, size: 4, offset: unsafe.Offsetof(quadtree.Vertex{}.Color)},
}

const vertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;
layout (location = 3) in vec4 aColor;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vNormal;
out vec4 vColor;

void main() {
	gl_Position = uProjection * uView * uModel * vec4(aPos, 1.0);
	// The model matrix is a uniform scale plus translation.
	vNormal = aNormal;
	vColor = aColor;
}
`

const fragmentShader = `
#version 410 core

in vec3 vNormal;
in vec4 vColor;

uniform vec4 uColor;
uniform vec3 uLightDir;
uniform bool uLit;

out vec4 FragColor;

void main() {
	if (!uLit) {
		FragColor = uColor;
		return;
	}
	float diffuse = max(dot(normalize(vNormal), uLightDir), 0.0);
	vec3 rgb = vColor.rgb * (0.35 + 0.65 * diffuse);
	FragColor = vec4(rgb, vColor.a);
}
`
