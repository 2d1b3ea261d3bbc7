package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexZx-05/Multiple-step-form/internal/client"
	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
	"github.com/AlexZx-05/Multiple-step-form/internal/form"
)

type alwaysAvailable struct{}

func (alwaysAvailable) CheckUsername(ctx context.Context, username string) (bool, error) {
	return true, nil
}

// locationPrompter returns a prompter parked on the location step, reading
// answers from input.
func locationPrompter(t *testing.T, input string, mux *http.ServeMux) *prompter {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	cli, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	ctl := form.New(alwaysAvailable{}, cli)
	ctl.SetUsername("alice")
	ctl.Wait()
	require.NoError(t, ctl.Set(entity.FieldCurrentPassword, "old"))
	require.NoError(t, ctl.Set(entity.FieldNewPassword, "new"))
	require.NoError(t, ctl.Next())
	require.NoError(t, ctl.Set(entity.FieldProfession, entity.ProfessionStudent))
	require.NoError(t, ctl.Set(entity.FieldAddressLine1, "1 Main St"))
	require.NoError(t, ctl.Next())
	require.Equal(t, form.StepLocation, ctl.Step())

	return &prompter{in: bufio.NewReader(strings.NewReader(input)), cli: cli, ctl: ctl}
}

func referenceMux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/api/countries", func(w http.ResponseWriter, r *http.Request) {
		reply(w, []entity.ReferenceEntry{{Code: "IN", Name: "India"}})
	})
	mux.HandleFunc("/api/states", func(w http.ResponseWriter, r *http.Request) {
		reply(w, []entity.ReferenceEntry{{Code: "KA", Name: "Karnataka"}})
	})
	mux.HandleFunc("/api/cities", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") == "" {
			t.Errorf("cities requested without a state")
		}
		reply(w, []entity.ReferenceEntry{{Code: "BLR", Name: "Bengaluru"}})
	})
	return mux
}

func TestLocation_BackAtLaterPromptsReturnsToPreviousStep(t *testing.T) {
	cases := map[string]string{
		"state": "1\n<\n",
		"city":  "1\n1\n<\n",
		"plan":  "1\n1\n1\n<\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			p := locationPrompter(t, input, referenceMux(t))

			err := p.location(context.Background())
			assert.ErrorIs(t, err, errBack)
			assert.Equal(t, form.StepProfession, p.ctl.Step())
		})
	}
}

func TestLocation_FillsEveryField(t *testing.T) {
	p := locationPrompter(t, "1\n1\n1\n2\ny\n\n", referenceMux(t))

	require.NoError(t, p.location(context.Background()))
	s := p.ctl.Summary()
	assert.Equal(t, "India", s.Country)
	assert.Equal(t, "Karnataka", s.State)
	assert.Equal(t, "Bengaluru", s.City)
	assert.Equal(t, entity.PlanBasic, s.SubscriptionPlan)
	assert.True(t, s.Newsletter)
	assert.True(t, p.ctl.CanNext())
}
