package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"go.uber.org/zap"
)

// fakeProductsAPI serves canned price-list documents keyed by service code.
type fakeProductsAPI struct {
	products map[string][]string
	err      error
}

func (f *fakeProductsAPI) GetProducts(ctx context.Context, in *awspricing.GetProductsInput, opts ...func(*awspricing.Options)) (*awspricing.GetProductsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &awspricing.GetProductsOutput{PriceList: f.products[*in.ServiceCode]}, nil
}

func priceDoc(usageType string, usd string) string {
	return fmt.Sprintf(`{
		"product": {"attributes": {"usagetype": %q}},
		"terms": {"OnDemand": {"T1": {"priceDimensions": {"D1": {"pricePerUnit": {"USD": %q}}}}}}
	}`, usageType, usd)
}

func TestGenerate(t *testing.T) {
	api := &fakeProductsAPI{products: map[string][]string{
		"AmazonEC2": {
			priceDoc("USE1-EBS:SnapshotArchiveStorage", "0.0125"),
			priceDoc("USE1-EBS:SnapshotUsage", "0.05"),
		},
		"AmazonRDS": {
			priceDoc("RDS:ChargedBackupUsage", "0.095"),
		},
	}}

	tbl, err := NewGeneratorWithAPI(api, zap.NewNop()).Generate(context.Background(), []string{"us-east-1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if tbl.Currency != "USD" || tbl.GeneratedAt == "" {
		t.Errorf("table metadata: %+v", tbl)
	}

	rates := tbl.Regions["us-east-1"]
	if rates.EBSSnapshotGBMonth == nil || *rates.EBSSnapshotGBMonth != 0.05 {
		t.Errorf("EBSSnapshotGBMonth = %v", rates.EBSSnapshotGBMonth)
	}
	if rates.EBSSnapshotArchiveGBMonth == nil || *rates.EBSSnapshotArchiveGBMonth != 0.0125 {
		t.Errorf("EBSSnapshotArchiveGBMonth = %v", rates.EBSSnapshotArchiveGBMonth)
	}
	if rates.RDSSnapshotGBMonth == nil || *rates.RDSSnapshotGBMonth != 0.095 {
		t.Errorf("RDSSnapshotGBMonth = %v", rates.RDSSnapshotGBMonth)
	}
}

func TestGenerateAPIFailureLeavesNilRates(t *testing.T) {
	api := &fakeProductsAPI{err: errors.New("throttled")}

	tbl, err := NewGeneratorWithAPI(api, zap.NewNop()).Generate(context.Background(), []string{"us-east-1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rates, ok := tbl.Regions["us-east-1"]
	if !ok {
		t.Fatal("region missing from table")
	}
	if rates.EBSSnapshotGBMonth != nil || rates.RDSSnapshotGBMonth != nil {
		t.Errorf("rates = %+v, want all nil", rates)
	}
}

func TestParseSnapshotProduct(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantUT  string
		wantUSD float64
		wantErr bool
	}{
		{
			"valid", priceDoc("USE1-EBS:SnapshotUsage", "0.05"),
			"USE1-EBS:SnapshotUsage", 0.05, false,
		},
		{"not json", "{oops", "", 0, true},
		{"no price", `{"product": {"attributes": {"usagetype": "x"}}, "terms": {}}`, "", 0, true},
		{"bad rate", priceDoc("x", "free"), "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ut, usd, err := parseSnapshotProduct(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSnapshotProduct: %v", err)
			}
			if ut != tt.wantUT || usd != tt.wantUSD {
				t.Errorf("got (%q, %v), want (%q, %v)", ut, usd, tt.wantUT, tt.wantUSD)
			}
		})
	}
}
