package backend

// Vertex is one vertex of the full-screen quad.
type Vertex struct {
	// Pos is the clip-space position; x right, y up.
	Pos [2]float32

	// UV is the texture coordinate; u right, v down.
	UV [2]float32
}

// QuadVertexCount is the number of vertices drawn per tick.
const QuadVertexCount = 6

// QuadVertices are two triangles covering clip space [-1, 1]² with texture
// coordinates spanning [0, 1]². The WGSL vertex stage embeds the same table.
var QuadVertices = [QuadVertexCount]Vertex{
	{Pos: [2]float32{1, 1}, UV: [2]float32{1, 0}},
	{Pos: [2]float32{1, -1}, UV: [2]float32{1, 1}},
	{Pos: [2]float32{-1, -1}, UV: [2]float32{0, 1}},
	{Pos: [2]float32{1, 1}, UV: [2]float32{1, 0}},
	{Pos: [2]float32{-1, -1}, UV: [2]float32{0, 1}},
	{Pos: [2]float32{-1, 1}, UV: [2]float32{0, 0}},
}

// QuadTriangles returns the quad as two triangles.
func QuadTriangles() [2][3]Vertex {
	v := QuadVertices
	return [2][3]Vertex{{v[0], v[1], v[2]}, {v[3], v[4], v[5]}}
}
