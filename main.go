package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/tmtvocab/internal/ai"
	"github.com/example/tmtvocab/internal/api"
	"github.com/example/tmtvocab/internal/database"
	"github.com/example/tmtvocab/internal/excel"
	"github.com/example/tmtvocab/internal/progress"
	"github.com/example/tmtvocab/internal/scheduler"
	"github.com/example/tmtvocab/internal/session"
	cloudsync "github.com/example/tmtvocab/internal/sync"
	"github.com/example/tmtvocab/internal/vocabulary"
)

func main() {
	// 本地开发时从 .env 读取配置
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// 首次启动时导入静态词库
	if path := os.Getenv("VOCAB_FILE"); path != "" {
		if err := importVocabulary(path); err != nil {
			log.Fatalf("Failed to import vocabulary: %v", err)
		}
	}

	// 生成器可选, 没有 API key 时照常运行
	var generator vocabulary.Generator
	if deepseek, err := ai.New(); err != nil {
		log.Printf("Word generation disabled: %v", err)
	} else {
		generator = deepseek
	}

	catalog, err := vocabulary.NewCatalog(database.NewWordRepository(), generator)
	if err != nil {
		log.Fatalf("Failed to load vocabulary: %v", err)
	}
	log.Printf("Loaded %d words", catalog.Count())

	store, err := progress.NewStore(database.NewProgressRepository())
	if err != nil {
		log.Fatalf("Failed to load progress: %v", err)
	}

	// 云同步可选, 未配置 SYNC_ENDPOINT 时仅保留本地进度
	var syncer api.SyncController
	var debouncer *cloudsync.Debouncer
	var backgroundSync *scheduler.Scheduler
	if remote, err := cloudsync.NewHTTPRemoteStore(); err != nil {
		log.Printf("Cloud sync disabled: %v", err)
	} else {
		reconciler := cloudsync.NewReconciler(store, remote)
		debouncer = cloudsync.NewDebouncer(remote, reconciler.UserID)
		store.AttachPusher(debouncer)
		syncer = reconciler

		backgroundSync = scheduler.New(reconciler)
		backgroundSync.Start()
	}

	handler := api.NewHandler(catalog, store, session.NewRepository(), database.NewSettingsRepository(), syncer)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: api.NewRouter(handler),
	}

	go func() {
		log.Printf("Server listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if backgroundSync != nil {
		backgroundSync.Stop()
	}
	if debouncer != nil {
		// 把尚未推送的进度发出去
		debouncer.Flush()
		debouncer.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped successfully")
}

// importVocabulary loads the static word set, skipping words that are
// already stored so restarts do not duplicate the pool
func importVocabulary(path string) error {
	config := excel.DefaultImportConfig()
	config.FilePath = path

	result, err := excel.ImportWords(config)
	if err != nil {
		return err
	}

	log.Printf("Vocabulary import: %d processed, %d created, %d skipped", result.TotalProcessed, result.Created, result.Skipped)
	for _, e := range result.Errors {
		log.Printf("Import warning: %s", e)
	}
	return nil
}
