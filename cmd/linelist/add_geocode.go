package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/config"
	"github.com/David-Botos/linelist-curation/pkg/geocode"
	"github.com/David-Botos/linelist-curation/pkg/logging"
	"github.com/David-Botos/linelist-curation/pkg/model"
	"github.com/David-Botos/linelist-curation/pkg/validator"
)

type manualGeocode struct {
	City     string
	Province string
	Country  string
	Lat      float64
	Lng      float64
	Location string
	Admin1   string
	Admin2   string
	Admin3   string
	HasPoint bool
}

func newAddGeocodeCommand(envFile *string) *cobra.Command {
	var in manualGeocode
	cmd := &cobra.Command{
		Use:   "add-geocode",
		Short: "Append a geocode to the master table, looking it up when no coordinates are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.HasPoint = cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng")
			return addGeocode(cmd.Context(), *envFile, in)
		},
	}
	cmd.Flags().StringVar(&in.Country, "country", "", "Country of the location")
	cmd.Flags().StringVar(&in.Province, "province", "", "Province of the location")
	cmd.Flags().StringVar(&in.City, "city", "", "City of the location")
	cmd.Flags().Float64Var(&in.Lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&in.Lng, "lng", 0, "Longitude in degrees")
	cmd.Flags().StringVar(&in.Location, "location", "", "Named location")
	cmd.Flags().StringVar(&in.Admin1, "admin1", "", "First level administrative area")
	cmd.Flags().StringVar(&in.Admin2, "admin2", "", "Second level administrative area")
	cmd.Flags().StringVar(&in.Admin3, "admin3", "", "Third level administrative area")
	_ = cmd.MarkFlagRequired("country")
	return cmd
}

func addGeocode(ctx context.Context, envFile string, in manualGeocode) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	fs := afero.NewOsFs()
	cache, err := geocode.LoadCache(fs, cfg.GeocodeTable)
	if err != nil {
		return fmt.Errorf("failed to load geocode table: %w", err)
	}

	triple := model.Triple{City: in.City, Province: in.Province, Country: in.Country}
	g, err := buildManualGeocode(ctx, in, geocode.NewArcGISFallback(cfg.ArcGISURL, cfg.GeocodeTimeout))
	if err != nil {
		return err
	}
	g.AdminID = cache.NextAdminID()

	if !cache.Insert(triple.Key(), g) {
		return fmt.Errorf("geocode for %q already exists", triple.Key())
	}
	if _, err := cache.Append(fs, cfg.GeocodeTable); err != nil {
		return err
	}

	logger.Info("Geocode added",
		zap.String("key", triple.Key()),
		zap.Float64("latitude", g.Latitude),
		zap.Float64("longitude", g.Longitude),
		zap.String("resolution", g.Resolution),
		zap.Int("admin_id", g.AdminID))
	return nil
}

// buildManualGeocode uses the given coordinates, or the fallback when none
// were given. The resolution is the finest admin level supplied.
func buildManualGeocode(ctx context.Context, in manualGeocode, fallback geocode.Fallback) (model.Geocode, error) {
	if strings.TrimSpace(in.Country) == "" {
		return model.Geocode{}, errors.New("country is required")
	}

	g := model.Geocode{
		Latitude:   in.Lat,
		Longitude:  in.Lng,
		Resolution: model.ResolutionAdmin0,
		Country:    in.Country,
		Location:   in.Location,
		Admin1:     in.Admin1,
		Admin2:     in.Admin2,
		Admin3:     in.Admin3,
	}
	switch {
	case in.Admin3 != "":
		g.Resolution = model.ResolutionAdmin3
	case in.Admin2 != "":
		g.Resolution = model.ResolutionAdmin2
	case in.Admin1 != "":
		g.Resolution = model.ResolutionAdmin1
	}

	if !in.HasPoint {
		triple := model.Triple{City: in.City, Province: in.Province, Country: in.Country}
		point, err := fallback.Geocode(ctx, triple.Query())
		if err != nil {
			return model.Geocode{}, fmt.Errorf("failed to geocode %q: %w", triple.Query(), err)
		}
		g.Latitude = point.Latitude
		g.Longitude = point.Longitude
		g.Resolution = model.ResolutionPoint
	}

	if !validator.ValidLatLng(g.Latitude, g.Longitude) {
		return model.Geocode{}, fmt.Errorf("invalid coordinates %v,%v", g.Latitude, g.Longitude)
	}
	return g, nil
}
