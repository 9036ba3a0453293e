// Package shader compiles and links OpenGL programs.
package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Program is a linked GL program with cached uniform locations.
type Program struct {
	ID       uint32
	uniforms map[string]int32
}

// Compile builds a program from vertex and fragment sources.
func Compile(vertexSrc, fragmentSrc string) (*Program, error) {
	vs, err := compileStage(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileStage(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &n)
		msg := infoLog(n, func(buf *uint8) { gl.GetProgramInfoLog(id, n, nil, buf) })
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("link: %s", msg)
	}

	return &Program{ID: id, uniforms: make(map[string]int32)}, nil
}

func compileStage(source string, stage uint32) (uint32, error) {
	s := gl.CreateShader(stage)
	csrc, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csrc, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &n)
		msg := infoLog(n, func(buf *uint8) { gl.GetShaderInfoLog(s, n, nil, buf) })
		gl.DeleteShader(s)
		return 0, fmt.Errorf("%s", msg)
	}
	return s, nil
}

func infoLog(n int32, read func(*uint8)) string {
	if n <= 0 {
		return "unknown error"
	}
	buf := make([]byte, n)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

// Use binds the program.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the location of a uniform, or -1 if it is inactive.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(name+"\x00"))
	p.uniforms[name] = loc
	return loc
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}
