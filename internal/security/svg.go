package security

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

var svgElements = map[string]bool{
	"svg": true, "g": true, "path": true, "circle": true, "ellipse": true,
	"line": true, "polyline": true, "polygon": true, "rect": true,
	"defs": true, "lineargradient": true, "radialgradient": true, "stop": true,
	"title": true, "desc": true, "clippath": true, "mask": true,
	"symbol": true, "use": true, "text": true, "tspan": true, "pattern": true,
}

var svgAttributes = map[string]bool{
	"xmlns": true, "version": true, "id": true, "class": true,
	"viewbox": true, "width": true, "height": true, "preserveaspectratio": true,
	"x": true, "y": true, "x1": true, "y1": true, "x2": true, "y2": true,
	"cx": true, "cy": true, "r": true, "rx": true, "ry": true, "fx": true, "fy": true,
	"d": true, "points": true, "transform": true, "offset": true,
	"fill": true, "fill-opacity": true, "fill-rule": true, "clip-rule": true,
	"stroke": true, "stroke-width": true, "stroke-linecap": true, "stroke-linejoin": true,
	"stroke-miterlimit": true, "stroke-dasharray": true, "stroke-dashoffset": true, "stroke-opacity": true,
	"opacity": true, "stop-color": true, "stop-opacity": true, "style": true,
	"gradientunits": true, "gradienttransform": true, "patternunits": true, "patterntransform": true,
	"spreadmethod": true, "clip-path": true, "clippathunits": true, "mask": true, "maskunits": true,
	"font-family": true, "font-size": true, "font-weight": true, "text-anchor": true,
	"dominant-baseline": true, "href": true,
}

// SanitizeSVG re-serializes an SVG document keeping only presentational
// elements and attributes. Scripts, foreign content, event handlers,
// external references and DTDs are dropped.
func SanitizeSVG(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = map[string]string{}

	var (
		out      bytes.Buffer
		skip     int
		depth    int
		sawRoot  bool
		rootDone bool
	)

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Invalid("Invalid SVG file")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootDone {
				return nil, domain.Invalid("Invalid SVG file")
			}
			if skip > 0 {
				skip++
				continue
			}
			local := strings.ToLower(t.Name.Local)
			if !sawRoot {
				if local != "svg" {
					return nil, domain.Invalid("Invalid SVG file")
				}
				sawRoot = true
			}
			if !svgElements[local] || (t.Name.Space != "" && t.Name.Space != "svg") {
				skip = 1
				continue
			}
			depth++
			writeStart(&out, t)
		case xml.EndElement:
			if skip > 0 {
				skip--
				continue
			}
			depth--
			out.WriteString("</" + qualified(t.Name) + ">")
			if depth == 0 {
				rootDone = true
			}
		case xml.CharData:
			if skip > 0 || depth == 0 {
				continue
			}
			_ = xml.EscapeText(&out, t)
		}
		// Comments, processing instructions and directives are dropped.
	}

	if !sawRoot || !rootDone || out.Len() == 0 {
		return nil, domain.Invalid("Invalid SVG file")
	}
	return out.Bytes(), nil
}

func writeStart(out *bytes.Buffer, t xml.StartElement) {
	out.WriteString("<" + qualified(t.Name))
	for _, a := range t.Attr {
		if !allowedAttr(a) {
			continue
		}
		out.WriteString(" " + qualified(a.Name) + `="`)
		_ = xml.EscapeText(out, []byte(a.Value))
		out.WriteString(`"`)
	}
	out.WriteString(">")
}

func allowedAttr(a xml.Attr) bool {
	local := strings.ToLower(a.Name.Local)
	space := strings.ToLower(a.Name.Space)

	switch space {
	case "":
		if !svgAttributes[local] {
			return false
		}
	case "xmlns":
		// namespace declarations other than xlink carry no rendering meaning
		if local != "xlink" {
			return false
		}
	case "xlink":
		if local != "href" {
			return false
		}
	default:
		return false
	}

	v := strings.ToLower(strings.Join(strings.Fields(a.Value), ""))
	if strings.Contains(v, "javascript:") || strings.Contains(v, "data:") ||
		strings.Contains(v, "expression(") || strings.Contains(v, "@import") {
		return false
	}
	if local == "href" {
		return strings.HasPrefix(v, "#")
	}
	if strings.Contains(v, "url(") {
		// only local fragment references such as url(#grad)
		return !strings.Contains(strings.ReplaceAll(v, "url(#", ""), "url(")
	}
	return true
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
