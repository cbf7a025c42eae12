package cost

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnomalyDetector(t *testing.T) {
	t.Run("needs history before flagging", func(t *testing.T) {
		detector := NewAnomalyDetector()

		for i := 0; i < 9; i++ {
			record := &UsageRecord{RequestID: fmt.Sprintf("req-%d", i), CostUSD: 0.01}
			assert.Nil(t, detector.Check(record))
		}

		// The 10th call would be a huge outlier but history is still
		// being built
		spike := &UsageRecord{RequestID: "req-spike", CostUSD: 100.0}
		assert.Nil(t, detector.Check(spike))
	})

	t.Run("flags a cost spike", func(t *testing.T) {
		detector := NewAnomalyDetector()

		for i := 0; i < 20; i++ {
			cost := 0.01
			if i%2 == 0 {
				cost = 0.012
			}
			detector.Check(&UsageRecord{RequestID: fmt.Sprintf("req-%d", i), CostUSD: cost})
		}

		anomaly := detector.Check(&UsageRecord{RequestID: "runaway", CostUSD: 5.0})
		assert.NotNil(t, anomaly)
		assert.Equal(t, "cost_spike", anomaly.Type)
		assert.Equal(t, "runaway", anomaly.RequestID)
		assert.Greater(t, anomaly.ZScore, 3.0)
		assert.Contains(t, anomaly.Message, "std from mean")
	})

	t.Run("normal costs pass", func(t *testing.T) {
		detector := NewAnomalyDetector()

		for i := 0; i < 20; i++ {
			cost := 0.01 + float64(i%3)*0.002
			detector.Check(&UsageRecord{RequestID: fmt.Sprintf("req-%d", i), CostUSD: cost})
		}

		assert.Nil(t, detector.Check(&UsageRecord{RequestID: "normal", CostUSD: 0.011}))
	})
}
