package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"example/vision-batch/internal/jsonfmt"
	"example/vision-batch/internal/model"
	"example/vision-batch/internal/vision"
)

const DefaultProgressInterval = 4 * time.Second

var responseHeader = color.New(color.FgCyan, color.Bold)

type Options struct {
	Concurrent int
	// Pattern is matched case-insensitively against file names. Empty means
	// any common image extension.
	Pattern   string
	Recursive bool
	// OutputDir receives the .json files. Empty writes them next to each image.
	OutputDir        string
	Out              io.Writer
	ProgressInterval time.Duration
}

type Summary struct {
	Total     int
	Processed int
	Failed    int
	Results   []model.Result
}

type ImageProcessor struct {
	analyzer Analyzer
	opts     Options

	mu sync.Mutex // serializes console output and Results
}

func NewImageProcessor(analyzer Analyzer, opts Options) *ImageProcessor {
	if opts.Concurrent <= 0 {
		opts.Concurrent = 1
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	return &ImageProcessor{
		analyzer: analyzer,
		opts:     opts,
	}
}

// ProcessImages analyzes every matching image in imageDir and waits for all
// of them. Failures of individual images are counted, not returned.
func (p *ImageProcessor) ProcessImages(ctx context.Context, imageDir string) (Summary, error) {
	root, err := filepath.Abs(imageDir)
	if err != nil {
		return Summary{}, fmt.Errorf("resolving %s: %w", imageDir, err)
	}

	images, err := p.collectImages(root)
	if err != nil {
		return Summary{}, err
	}
	log.Info("scanning folder", "folder", root, "files", len(images))
	names := outputNames(images)

	g := new(errgroup.Group)
	g.SetLimit(p.opts.Concurrent)

	var (
		errorCount     atomic.Int32
		processedCount atomic.Int32
		results        []model.Result
	)
	totalCount := len(images)

	done := make(chan struct{})
	defer close(done)
	go p.reportProgress(done, &processedCount, totalCount)

	for _, imagePath := range images {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The slot may have been granted after a cancel.
			if ctx.Err() != nil {
				return nil
			}
			defer processedCount.Add(1)

			res, err := p.processImage(ctx, root, imagePath, names[imagePath])
			if err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					log.Debug("analysis cancelled", "path", imagePath)
					return nil
				}
				errorCount.Add(1)
				log.Error("error processing image", "path", imagePath, "err", err)
				return nil
			}

			p.mu.Lock()
			results = append(results, res)
			p.mu.Unlock()
			return nil
		})
	}

	// Every started task has to finish before returning, including on cancel.
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].ImagePath < results[j].ImagePath })
	summary := Summary{
		Total:     totalCount,
		Processed: int(processedCount.Load()),
		Failed:    int(errorCount.Load()),
		Results:   results,
	}
	log.Info("processing finished", "total", summary.Total, "processed", summary.Processed, "failed", summary.Failed)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (p *ImageProcessor) processImage(ctx context.Context, root, imagePath, name string) (model.Result, error) {
	log.Info("asking about image", "path", imagePath)

	raw, err := p.analyzer.AnalyzeImage(ctx, imagePath)
	if err != nil {
		var apiErr *vision.APIError
		if errors.As(err, &apiErr) {
			log.Debug("error response", "path", imagePath, "body", jsonfmt.Format(apiErr.Body))
		}
		return model.Result{}, err
	}

	formatted := jsonfmt.Format(raw)
	p.print(imagePath, formatted)

	if analysis, ok := model.ParseAnalysis(raw); ok {
		if caption, ok := analysis.BestCaption(); ok {
			log.Info("caption", "path", filepath.Base(imagePath), "text", caption.Text, "confidence", caption.Confidence)
		}
	}

	outputPath, err := p.outputPath(root, imagePath, name)
	if err != nil {
		return model.Result{}, err
	}
	if err := os.WriteFile(outputPath, []byte(formatted), 0o644); err != nil {
		return model.Result{}, fmt.Errorf("writing result: %w", err)
	}
	log.Debug("result written", "path", outputPath)

	return model.Result{
		ImagePath:  imagePath,
		OutputPath: outputPath,
		Raw:        raw,
		Formatted:  formatted,
	}, nil
}

func (p *ImageProcessor) print(imagePath, formatted string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	responseHeader.Fprintf(p.opts.Out, "\nResponse for %s:\n\n", imagePath)
	fmt.Fprintln(p.opts.Out, formatted)
}

// outputNames picks the .json file name for each image. Images in one folder
// that share a stem (photo.jpg, photo.png, Photo.JPG) keep their extension so
// they don't overwrite each other.
func outputNames(images []string) map[string]string {
	key := func(path string) string {
		return strings.ToLower(filepath.Join(filepath.Dir(path), stem(path)))
	}

	counts := make(map[string]int, len(images))
	for _, img := range images {
		counts[key(img)]++
	}

	names := make(map[string]string, len(images))
	for _, img := range images {
		if counts[key(img)] > 1 {
			names[img] = filepath.Base(img) + ".json"
			continue
		}
		names[img] = stem(img) + ".json"
	}
	return names
}

func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// outputPath places name next to the image, or below OutputDir at the image's
// position relative to root so recursive walks don't collide.
func (p *ImageProcessor) outputPath(root, imagePath, name string) (string, error) {
	if p.opts.OutputDir == "" {
		return filepath.Join(filepath.Dir(imagePath), name), nil
	}

	rel, err := filepath.Rel(root, filepath.Dir(imagePath))
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}
	dir := filepath.Join(p.opts.OutputDir, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func (p *ImageProcessor) reportProgress(done <-chan struct{}, processedCount *atomic.Int32, totalCount int) {
	ticker := time.NewTicker(p.opts.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			processed := processedCount.Load()
			if int(processed) < totalCount {
				log.Info("progress", "done", processed, "total", totalCount,
					"percent", fmt.Sprintf("%.1f%%", float64(processed)/float64(totalCount)*100))
			}
		}
	}
}

func (p *ImageProcessor) collectImages(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a folder", dir)
	}

	var images []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if d.IsDir() {
			if path != dir && !p.opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		ok, err := p.matches(d.Name())
		if err != nil {
			return err
		}
		if ok {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(images)
	return images, nil
}

func (p *ImageProcessor) matches(name string) (bool, error) {
	if p.opts.Pattern == "" {
		return isImageFile(name), nil
	}
	ok, err := filepath.Match(strings.ToLower(p.opts.Pattern), strings.ToLower(name))
	if err != nil {
		return false, fmt.Errorf("invalid pattern %q: %w", p.opts.Pattern, err)
	}
	return ok, nil
}

func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".gif" || ext == ".webp"
}
