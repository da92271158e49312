package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"go.uber.org/zap"
)

// The AWS Pricing API is only served from us-east-1 and ap-south-1
const pricingAPIRegion = "us-east-1"

// Usage-type suffixes that classify EC2 snapshot storage products
const (
	usageEBSSnapshot        = "EBS:SnapshotUsage"
	usageEBSSnapshotArchive = "EBS:SnapshotArchiveStorage"
)

// ProductsAPI is the slice of the AWS Pricing API used by the generator.
type ProductsAPI interface {
	GetProducts(ctx context.Context, in *awspricing.GetProductsInput, opts ...func(*awspricing.Options)) (*awspricing.GetProductsOutput, error)
}

// Generator regenerates the snapshot price table from the AWS Pricing API.
// It produces the JSON file the run-time Table consumes; the core never
// calls the Pricing API itself.
type Generator struct {
	api    ProductsAPI
	logger *zap.Logger
}

// NewGenerator builds a Generator against the real AWS Pricing API.
func NewGenerator(ctx context.Context, logger *zap.Logger) (*Generator, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(pricingAPIRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for pricing API: %w", err)
	}
	return &Generator{api: awspricing.NewFromConfig(cfg), logger: logger}, nil
}

// NewGeneratorWithAPI builds a Generator over an injected API, for tests.
func NewGeneratorWithAPI(api ProductsAPI, logger *zap.Logger) *Generator {
	return &Generator{api: api, logger: logger}
}

// Generate fetches snapshot GB-month rates for each region and assembles a
// Table. Regions where a rate cannot be determined keep a nil entry so the
// cost engine falls back to the sentinel.
func (g *Generator) Generate(ctx context.Context, regions []string) (*Table, error) {
	t := &Table{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Currency:    "USD",
		Regions:     make(map[string]RegionRates, len(regions)),
	}

	for _, region := range regions {
		rates := RegionRates{}

		ebs, archive, err := g.ec2SnapshotRates(ctx, region)
		if err != nil {
			g.logger.Warn("no EC2 snapshot pricing for region", zap.String("region", region), zap.Error(err))
		} else {
			rates.EBSSnapshotGBMonth = ebs
			rates.EBSSnapshotArchiveGBMonth = archive
		}

		rds, err := g.rdsSnapshotRate(ctx, region)
		if err != nil {
			g.logger.Warn("no RDS snapshot pricing for region", zap.String("region", region), zap.Error(err))
		} else {
			rates.RDSSnapshotGBMonth = rds
		}

		t.Regions[region] = rates
	}

	return t, nil
}

// WriteFile writes the table as indented JSON.
func (t *Table) WriteFile(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding price table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing price table: %w", err)
	}
	return nil
}

// ec2SnapshotRates returns the standard and archive EBS snapshot rates for
// one region. Products are classified by usage-type suffix because the
// usage type carries a region prefix (e.g. "USE2-EBS:SnapshotUsage").
func (g *Generator) ec2SnapshotRates(ctx context.Context, region string) (standard, archive *float64, err error) {
	products, err := g.getProducts(ctx, "AmazonEC2", region)
	if err != nil {
		return nil, nil, err
	}

	for _, raw := range products {
		usageType, price, perr := parseSnapshotProduct(raw)
		if perr != nil {
			g.logger.Debug("skipping unparseable pricing product", zap.Error(perr))
			continue
		}
		switch {
		case strings.HasSuffix(usageType, usageEBSSnapshot):
			if standard == nil {
				standard = &price
			}
		case strings.HasSuffix(usageType, usageEBSSnapshotArchive):
			if archive == nil {
				archive = &price
			}
		}
	}

	if standard == nil && archive == nil {
		return nil, nil, fmt.Errorf("no snapshot storage products for %s", region)
	}
	return standard, archive, nil
}

func (g *Generator) rdsSnapshotRate(ctx context.Context, region string) (*float64, error) {
	products, err := g.getProducts(ctx, "AmazonRDS", region)
	if err != nil {
		return nil, err
	}

	for _, raw := range products {
		_, price, perr := parseSnapshotProduct(raw)
		if perr != nil {
			continue
		}
		return &price, nil
	}
	return nil, fmt.Errorf("no snapshot storage products for %s", region)
}

func (g *Generator) getProducts(ctx context.Context, serviceCode, region string) ([]string, error) {
	filters := []types.Filter{
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("productFamily"),
			Value: aws.String("Storage Snapshot"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("regionCode"),
			Value: aws.String(region),
		},
	}

	input := &awspricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(100),
	}

	resp, err := g.api.GetProducts(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("calling AWS Pricing API: %w", err)
	}
	if len(resp.PriceList) == 0 {
		return nil, fmt.Errorf("no %s pricing found in %s", serviceCode, region)
	}
	return resp.PriceList, nil
}

// parseSnapshotProduct digs the usage type and the first on-demand
// GB-month rate out of one price-list document.
func parseSnapshotProduct(raw string) (usageType string, price float64, err error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", 0, fmt.Errorf("parsing pricing product: %w", err)
	}

	product, _ := doc["product"].(map[string]any)
	attrs, _ := product["attributes"].(map[string]any)
	usageType, _ = attrs["usagetype"].(string)

	terms, _ := doc["terms"].(map[string]any)
	onDemand, _ := terms["OnDemand"].(map[string]any)
	for _, term := range onDemand {
		tm, _ := term.(map[string]any)
		dims, _ := tm["priceDimensions"].(map[string]any)
		for _, dim := range dims {
			dm, _ := dim.(map[string]any)
			ppu, _ := dm["pricePerUnit"].(map[string]any)
			usd, _ := ppu["USD"].(string)
			if usd == "" {
				continue
			}
			price, err = strconv.ParseFloat(usd, 64)
			if err != nil {
				return "", 0, fmt.Errorf("parsing USD rate %q: %w", usd, err)
			}
			return usageType, price, nil
		}
	}
	return "", 0, fmt.Errorf("no on-demand USD rate in product")
}
