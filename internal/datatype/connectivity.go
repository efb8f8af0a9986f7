// Package datatype holds the domain entities the web layer exposes:
// large-scale connectivities and triangulated cortical surfaces. Both
// are addressed by GID and persisted through internal/store.
package datatype

import (
	"fmt"
	"math"
	"time"
)

// Connectivity is a large-scale brain network: one node per region,
// with weighted couplings and tract lengths between every pair.
type Connectivity struct {
	GID     string    `json:"gid"`
	Project string    `json:"project"`
	Label   string    `json:"label"`
	Created time.Time `json:"created"`

	RegionLabels []string     `json:"region_labels"`
	Centres      [][3]float64 `json:"centres"`
	Weights      [][]float64  `json:"weights"`
	TractLengths [][]float64  `json:"tract_lengths"`
}

// NumberOfRegions returns the node count of the network.
func (c *Connectivity) NumberOfRegions() int {
	return len(c.RegionLabels)
}

// Validate checks the structural invariants: matching label/centre
// counts and square coupling matrices of the same order.
func (c *Connectivity) Validate() error {
	n := len(c.RegionLabels)
	if n == 0 {
		return fmt.Errorf("connectivity %s: no regions", c.GID)
	}
	if len(c.Centres) != n {
		return fmt.Errorf("connectivity %s: %d centres for %d regions", c.GID, len(c.Centres), n)
	}
	if err := checkSquare("weights", c.Weights, n); err != nil {
		return fmt.Errorf("connectivity %s: %w", c.GID, err)
	}
	if err := checkSquare("tract_lengths", c.TractLengths, n); err != nil {
		return fmt.Errorf("connectivity %s: %w", c.GID, err)
	}
	for i, row := range c.Weights {
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("connectivity %s: non-finite weight at [%d][%d]", c.GID, i, j)
			}
		}
	}
	return nil
}

func checkSquare(name string, m [][]float64, n int) error {
	if len(m) != n {
		return fmt.Errorf("%s has %d rows, want %d", name, len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%s row %d has %d columns, want %d", name, i, len(row), n)
		}
	}
	return nil
}
