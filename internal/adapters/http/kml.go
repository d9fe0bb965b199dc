package http

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	kml "github.com/twpayne/go-kml"

	"github.com/samirrijal/curbside/internal/core/domain"
)

const mimeKML = "application/vnd.google-earth.kml+xml"

// CrossingsKML builds a KML document with the query center and one folder
// of point placemarks per ring.
func CrossingsKML(res *domain.CrossingResult) *kml.CompoundElement {
	doc := []kml.Element{
		kml.Name(fmt.Sprintf("Crossings near %.5f,%.5f", res.Center.Lat, res.Center.Lon)),
		kml.Description(fmt.Sprintf("%d roads, %d crossing points", res.RoadCount, res.PointCount())),
		kml.Placemark(
			kml.Name("center"),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: res.Center.Lon, Lat: res.Center.Lat})),
		),
	}
	for _, ring := range res.Rings {
		folder := []kml.Element{
			kml.Name(fmt.Sprintf("%g mi ring", ring.RadiusMiles)),
			kml.Description(fmt.Sprintf("%d points", len(ring.Points))),
		}
		for i, p := range ring.Points {
			folder = append(folder, kml.Placemark(
				kml.Name(fmt.Sprintf("%g mi #%d", ring.RadiusMiles, i+1)),
				kml.Point(kml.Coordinates(kml.Coordinate{Lon: p.Lon, Lat: p.Lat})),
			))
		}
		doc = append(doc, kml.Folder(folder...))
	}
	return kml.KML(kml.Document(doc...))
}

// WriteKML writes the indented KML document for res to w.
func WriteKML(w io.Writer, res *domain.CrossingResult) error {
	return CrossingsKML(res).WriteIndent(w, "", "  ")
}

// KMLHandler answers GET /v1/crossings.kml?lat=&lon=.
func KMLHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, msg := queryCoordinate(c)
		if msg != "" {
			return errBadRequest(c, msg)
		}
		res, err := deps.Crossings.FindCrossings(c.UserContext(), center)
		if err != nil {
			return errFromService(c, err)
		}

		var buf bytes.Buffer
		if err := WriteKML(&buf, res); err != nil {
			return errInternal(c, "encode kml: "+err.Error())
		}
		c.Set(fiber.HeaderContentType, mimeKML)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="crossings.kml"`)
		return c.Send(buf.Bytes())
	}
}
