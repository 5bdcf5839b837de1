// Command indexbuild builds the precomputed whole-dataset index offline.
//
// Records come from Postgres by default, or from a tabular dump with -csv.
// Same-date records are grouped into one document per date, split with the
// bulk chunking settings, embedded, and written to the index directory the
// API server loads at startup.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/salesrag/internal/config"
	"github.com/kailas-cloud/salesrag/internal/corpus"
	"github.com/kailas-cloud/salesrag/internal/domain"
	"github.com/kailas-cloud/salesrag/internal/index"
	logpkg "github.com/kailas-cloud/salesrag/internal/logger"
	salesrepo "github.com/kailas-cloud/salesrag/internal/repository/sales"
	"github.com/kailas-cloud/salesrag/internal/splitter"
	openaiTransport "github.com/kailas-cloud/salesrag/internal/transport/openai"
	"github.com/kailas-cloud/salesrag/internal/version"
)

func main() {
	var (
		csvPath = flag.String("csv", "", "read records from this dataset dump instead of Postgres")
		outDir  = flag.String("out", "", "output index directory (default: index.dir from config)")
		dumpCSV = flag.String("dump-csv", "", "also write the fetched records to this path")
		timeout = flag.Duration("timeout", 30*time.Minute, "overall build timeout")
	)
	flag.Parse()

	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if *csvPath == "" && cfg.Bulk.SourceCSV != "" {
		*csvPath = cfg.Bulk.SourceCSV
	}
	if *outDir == "" {
		*outDir = cfg.Index.Dir
	}

	logger.Info("Starting bulk index build",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("out", *outDir),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("chunk_size", cfg.Bulk.ChunkSize),
		zap.Int("chunk_overlap", cfg.Bulk.ChunkOverlap),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	records, err := loadRecords(ctx, cfg, *csvPath, logger)
	if err != nil {
		logger.Fatal("Failed to load sales records", zap.Error(err))
	}
	if len(records) == 0 {
		logger.Fatal("No sales records to index")
	}
	logger.Info("Loaded sales records", zap.Int("records", len(records)))

	if *dumpCSV != "" {
		if err := corpus.WriteCSV(*dumpCSV, records); err != nil {
			logger.Fatal("Failed to dump records", zap.String("path", *dumpCSV), zap.Error(err))
		}
		logger.Info("Wrote dataset dump", zap.String("path", *dumpCSV))
	}

	docs := corpus.GroupByDate(records)

	split, err := splitter.New(cfg.Bulk.ChunkSize, cfg.Bulk.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid bulk splitter config", zap.Error(err))
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	builder := index.NewBuilder(split, embedder, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger)

	start := time.Now()
	idx, err := builder.Build(ctx, docs)
	if err != nil {
		logger.Fatal("Index build failed", zap.Error(err))
	}

	if err := idx.Save(*outDir); err != nil {
		logger.Fatal("Failed to save index", zap.String("dir", *outDir), zap.Error(err))
	}

	logger.Info("Index build complete",
		zap.String("dir", *outDir),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", idx.Len()),
		zap.Int("dimensions", idx.Dimensions()),
		zap.Duration("took", time.Since(start)),
	)
}

// loadRecords reads the dataset from the tabular dump when a path is given,
// from Postgres otherwise.
func loadRecords(ctx context.Context, cfg config.Config, csvPath string, logger *zap.Logger) ([]domain.SaleRecord, error) {
	if csvPath != "" {
		logger.Info("Reading records from dataset dump", zap.String("path", csvPath))
		return corpus.ReadCSV(csvPath)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	repo := salesrepo.New(pool)
	return repo.FetchAll(ctx)
}
