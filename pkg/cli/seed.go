package cli

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"io"
	"os"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/cli/config"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

//go:embed seed/cases.yaml
var sampleCases []byte

type seedFile struct {
	Cases []seedCase `yaml:"cases"`
}

type seedCase struct {
	CaseID         string   `yaml:"case_id"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	ViolationTypes []string `yaml:"violation_types"`
	Status         string   `yaml:"status"`
	Priority       string   `yaml:"priority"`
	Location       struct {
		Country   string   `yaml:"country"`
		Region    string   `yaml:"region"`
		Longitude *float64 `yaml:"longitude"`
		Latitude  *float64 `yaml:"latitude"`
	} `yaml:"location"`
	DateOccurred string              `yaml:"date_occurred"`
	DateReported string              `yaml:"date_reported"`
	Victims      []string            `yaml:"victims"`
	Perpetrators []model.Perpetrator `yaml:"perpetrators"`
	Evidence     []struct {
		Type         string `yaml:"type"`
		URL          string `yaml:"url"`
		Description  string `yaml:"description"`
		DateCaptured string `yaml:"date_captured"`
	} `yaml:"evidence"`
	CreatedBy string `yaml:"created_by"`
}

// parseSeedDate accepts a plain date or an RFC 3339 timestamp
func parseSeedDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid date in seed file", goerr.V("field", field), goerr.V("value", s))
	}
	return t.UTC(), nil
}

func (s *seedCase) toModel() (*model.Case, error) {
	c := &model.Case{
		CaseID:         s.CaseID,
		Title:          s.Title,
		Description:    s.Description,
		ViolationTypes: s.ViolationTypes,
		Status:         types.CaseStatus(s.Status),
		Priority:       types.Priority(s.Priority),
		Location: model.Location{
			Country: s.Location.Country,
			Region:  s.Location.Region,
		},
		Victims:      s.Victims,
		Perpetrators: s.Perpetrators,
		CreatedBy:    s.CreatedBy,
	}
	if s.Location.Longitude != nil && s.Location.Latitude != nil {
		c.Location.Coordinates = model.NewGeoPoint(*s.Location.Longitude, *s.Location.Latitude)
	}

	var err error
	if c.DateOccurred, err = parseSeedDate("date_occurred", s.DateOccurred); err != nil {
		return nil, err
	}
	if c.DateReported, err = parseSeedDate("date_reported", s.DateReported); err != nil {
		return nil, err
	}
	for _, e := range s.Evidence {
		captured, err := parseSeedDate("date_captured", e.DateCaptured)
		if err != nil {
			return nil, err
		}
		c.Evidence = append(c.Evidence, model.EvidenceItem{
			Type:         types.EvidenceType(e.Type),
			URL:          e.URL,
			Description:  e.Description,
			DateCaptured: captured,
		})
	}
	return c, nil
}

func loadSeedCases(r io.Reader) ([]*model.Case, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, goerr.Wrap(err, "failed to decode seed file")
	}

	cases := make([]*model.Case, 0, len(f.Cases))
	for i := range f.Cases {
		c, err := f.Cases[i].toModel()
		if err != nil {
			return nil, goerr.Wrap(err, "invalid seed case", goerr.V("index", i))
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func cmdSeed() *cli.Command {
	var path string
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "YAML file of cases to load (built-in samples when omitted)",
			Sources:     cli.EnvVars("HRMONITOR_SEED_FILE"),
			Destination: &path,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Load sample cases into the repository",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			var r io.Reader = bytes.NewReader(sampleCases)
			if path != "" {
				// #nosec G304 - path is provided by CLI argument
				f, err := os.Open(path)
				if err != nil {
					return goerr.Wrap(err, "failed to open seed file", goerr.V("path", path))
				}
				defer safe.Close(ctx, f)
				r = f
			}

			cases, err := loadSeedCases(r)
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo)
			var created, skipped int
			for _, sc := range cases {
				if _, err := uc.Case.CreateCase(ctx, sc); err != nil {
					if errors.Is(err, model.ErrConflict) {
						logger.Info("Case already exists, skipped", "case_id", sc.CaseID)
						skipped++
						continue
					}
					return goerr.Wrap(err, "failed to seed case", goerr.V(model.CaseIDKey, sc.CaseID))
				}
				logger.Info("Case seeded", "case_id", sc.CaseID)
				created++
			}

			logger.Info("Seed completed", "created", created, "skipped", skipped)
			return nil
		},
	}
}
