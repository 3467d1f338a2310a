package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// ReportRepository archives monthly serving reports in MongoDB.
type ReportRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewReportRepository connects and pings the server.
func NewReportRepository(ctx context.Context, uri string, dbName string) (*ReportRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &ReportRepository{
		client:   client,
		dbName:   dbName,
		collName: "monthly_reports",
	}, nil
}

// SaveMonthlyReport upserts the report for its year and month.
func (r *ReportRepository) SaveMonthlyReport(ctx context.Context, report models.MonthlyReport) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	filter := bson.M{"year": report.Year, "month": report.Month}
	_, err := collection.ReplaceOne(ctx, filter, report, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save monthly report %d-%02d: %w", report.Year, report.Month, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *ReportRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
