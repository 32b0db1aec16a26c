package server

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"winddash/internal/dashboard"
	"winddash/internal/storage"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "winddash",
		"mock":    s.config.UseMockData,
	})
}

func (s *Server) handleView(c *fiber.Ctx) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

func (s *Server) handleChartHTML(c *fiber.Ctx) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := view.Chart().HTML(&buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set("X-Status", view.Status)
	return c.Send(buf.Bytes())
}

func (s *Server) handleChartPNG(c *fiber.Ctx) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := view.Chart().PNG(&buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, storage.GetContentType("chart.png"))
	c.Set("X-Status", view.Status)
	return c.Send(buf.Bytes())
}

func (s *Server) handleLocate(c *fiber.Ctx) error {
	lon, lonSet, err := queryFloat(c, "lon")
	if err != nil {
		return err
	}
	lat, latSet, err := queryFloat(c, "lat")
	if err != nil {
		return err
	}
	if !lonSet || !latSet {
		return fiber.NewError(fiber.StatusBadRequest, "lon and lat query parameters are required")
	}

	g, err := s.grid.Get(c.UserContext())
	if err != nil {
		return err
	}
	cell, err := g.Locate(lon, lat)
	if err != nil {
		return err
	}
	return c.JSON(cell)
}

func (s *Server) handleCells(c *fiber.Ctx) error {
	g, err := s.grid.Get(c.UserContext())
	if err != nil {
		return err
	}
	data, err := g.FeatureCollection().MarshalJSON()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, storage.GetContentType("cells.geojson"))
	return c.Send(data)
}

func (s *Server) handleCacheStats(c *fiber.Ctx) error {
	if s.cache == nil {
		return fiber.NewError(fiber.StatusNotFound, "response cache is disabled")
	}
	return c.JSON(fiber.Map{
		"stats":   s.cache.Stats(),
		"max_age": s.cache.MaxAge().String(),
	})
}

// buildView binds the query string and runs the dashboard pipeline
func (s *Server) buildView(c *fiber.Ctx) (*dashboard.View, error) {
	req, err := s.bindViewRequest(c)
	if err != nil {
		return nil, err
	}
	return s.dashboard.BuildView(c.UserContext(), req)
}

// bindViewRequest resolves the selected cell: a cell id alone takes its centroid
// from the grid, a point alone is located on the grid, neither selects the start cell
func (s *Server) bindViewRequest(c *fiber.Ctx) (dashboard.ViewRequest, error) {
	var req dashboard.ViewRequest

	lon, lonSet, err := queryFloat(c, "lon")
	if err != nil {
		return req, err
	}
	lat, latSet, err := queryFloat(c, "lat")
	if err != nil {
		return req, err
	}
	if lonSet != latSet {
		return req, fiber.NewError(fiber.StatusBadRequest, "lon and lat must be given together")
	}
	cellID := strings.TrimSpace(c.Query("cell"))

	switch {
	case cellID == "" && !lonSet:
		cellID, lon, lat = s.config.StartCellID, s.config.StartLon, s.config.StartLat
	case cellID == s.config.StartCellID && !lonSet:
		lon, lat = s.config.StartLon, s.config.StartLat
	case cellID == "":
		g, err := s.grid.Get(c.UserContext())
		if err != nil {
			return req, err
		}
		cell, err := g.Locate(lon, lat)
		if err != nil {
			return req, err
		}
		cellID = cell.ID
	case !lonSet:
		g, err := s.grid.Get(c.UserContext())
		if err != nil {
			return req, err
		}
		cell, err := g.Cell(cellID)
		if err != nil {
			return req, err
		}
		lon, lat = cell.Longitude, cell.Latitude
	}

	req.CellID = cellID
	req.Longitude = lon
	req.Latitude = lat
	req.ObsDate = strings.TrimSpace(c.Query("date"))
	req.ReferenceHour = strings.TrimSpace(c.Query("ref_hour"))
	req.ShowObservations = c.QueryBool("obs", false)

	if req.StartHour, err = queryInt(c, "start", 0); err != nil {
		return req, err
	}
	if req.EndHour, err = queryInt(c, "end", 0); err != nil {
		return req, err
	}
	if req.RefPosition, err = queryInt(c, "offset", 0); err != nil {
		return req, err
	}
	return req, nil
}

func queryFloat(c *fiber.Ctx, key string) (float64, bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s %q", key, raw))
	}
	return v, true, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s %q", key, raw))
	}
	return v, nil
}
