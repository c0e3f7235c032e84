// Package export writes reconstructed EGM meshes to interchange formats.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/egm-tools/pkg/egm"
	"github.com/Faultbox/egm-tools/pkg/encoding"
)

const header = "# Exported by egmtool"

// MaterialName returns the exported name of palette entry i.
func MaterialName(i int) string {
	return fmt.Sprintf("color_%d", i)
}

// WriteOBJ writes mesh as a single Wavefront OBJ object. Positions keep the
// model's vertex indexing and are multiplied by the model scale. mtlName is
// the material library referenced by the file; empty omits it.
func WriteOBJ(w io.Writer, mesh *egm.Mesh, mtlName string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, header)
	fmt.Fprintf(bw, "# LOD %d\n", mesh.LOD)
	if mtlName != "" {
		fmt.Fprintf(bw, "mtllib %s\n", mtlName)
	}
	fmt.Fprintf(bw, "\no %s\n", encoding.SanitizeName(mesh.Name))

	for _, p := range mesh.Positions {
		p = p.Scale(mesh.Scale)
		fmt.Fprintf(bw, "v %s %s %s\n", num(p.X), num(p.Y), num(p.Z))
	}

	// Attributes are written per corner, faces are buffered until all of
	// them are out.
	var faces strings.Builder
	vt, vn := 1, 1
	material := -1
	groups := [2]int{}
	for i, f := range mesh.Faces {
		if f.Material != material {
			fmt.Fprintf(&faces, "usemtl %s\n", MaterialName(f.Material))
			material = f.Material
		}
		if g := [2]int{f.Transform, f.Luminosity}; i == 0 || g != groups {
			fmt.Fprintf(&faces, "g %s\n", groupName(g))
			groups = g
		}

		faces.WriteString("f")
		for j, v := range f.Vertices {
			uv := f.UV[j]
			n := f.Normals[j]
			fmt.Fprintf(bw, "vt %s %s\n", num(uv.X), num(uv.Y))
			fmt.Fprintf(bw, "vn %s %s %s\n", num(n.X), num(n.Y), num(n.Z))
			fmt.Fprintf(&faces, " %d/%d/%d", v+1, vt, vn)
			vt++
			vn++
		}
		faces.WriteString("\n")
	}

	fmt.Fprint(bw, faces.String())
	return bw.Flush()
}

// WriteMTL writes a material library with one material per palette entry.
// Transparent entries carry their alpha as dissolve.
func WriteMTL(w io.Writer, palette []egm.Color) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, header)
	for i, c := range palette {
		fmt.Fprintf(bw, "\nnewmtl %s\n", MaterialName(i))
		fmt.Fprintf(bw, "Kd %s %s %s\n", num(c[0]), num(c[1]), num(c[2]))
		fmt.Fprintf(bw, "d %s\n", num(c[3]))
		if c.Transparent() {
			fmt.Fprintln(bw, "illum 4")
		} else {
			fmt.Fprintln(bw, "illum 1")
		}
	}
	return bw.Flush()
}

func groupName(g [2]int) string {
	if g == [2]int{} {
		return "default"
	}
	return fmt.Sprintf("%s_%d_%s_%d", egm.GroupTransform, g[0], egm.GroupLuminosity, g[1])
}

func num(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
