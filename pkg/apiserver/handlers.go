package apiserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/kdeps/intake/pkg/archiver"
	"github.com/kdeps/intake/pkg/dataset"
	"github.com/kdeps/intake/pkg/domain"
	"github.com/kdeps/intake/pkg/messages"
)

const (
	videoField = "video"
	dataField  = "json"

	allDatasetsArchive = "all_datasets.zip"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, messages.MsgHelloWorld)
}

func (s *Server) handleHealth(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Datasets: stats.Complete, Incomplete: stats.Incomplete})
}

func (s *Server) handleUpload(c *gin.Context) {
	video, err := readPart(c, videoField)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := readPart(c, dataField)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.store.Create(c.Request.Context(), dataset.CreateRequest{Video: video, Data: data})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Video:             result.VideoRelPath,
		GyroscopeData:     result.GyroscopeData,
		AccelerometerData: result.AccelerometerData,
	})
}

// readPart returns nil without error when the part is absent; the store
// reports missing parts.
func readPart(c *gin.Context, field string) (*dataset.Part, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if isTooLarge(err) {
			return nil, domain.NewAppError(domain.ErrCodeRequestTooLarge, messages.RespRequestTooLarge)
		}
		requestLogger(c).Debug("upload part missing", "field", field, "error", err)
		return nil, nil
	}

	content, err := readFileHeader(header)
	if err != nil {
		if isTooLarge(err) {
			return nil, domain.NewAppError(domain.ErrCodeRequestTooLarge, messages.RespRequestTooLarge)
		}
		return nil, domain.NewAppError(domain.ErrCodeInternal, messages.ErrReadUploadedFile).WithError(err)
	}

	return &dataset.Part{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func (s *Server) handleList(c *gin.Context) {
	ids, err := s.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("key")
	ctx := c.Request.Context()

	pair, err := s.store.ResolvePair(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	content, err := archiver.BuildArchive(ctx, s.store.Fs(), archiver.DatasetEntries(*pair, archiver.LayoutFlat))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(fmt.Sprintf("%s_dataset.zip", id)))
	c.Data(http.StatusOK, contentTypeZip, content)
}

func (s *Server) handleDownloadAll(c *gin.Context) {
	ctx := c.Request.Context()
	logger := requestLogger(c)

	res, err := s.store.ResolveAllPairs(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(res.Incomplete) > 0 {
		missing := make([]string, 0, len(res.Incomplete))
		for _, inc := range res.Incomplete {
			missing = append(missing, inc.ID+"/"+inc.Reason)
		}
		logger.Warn(messages.MsgMissingJSONFiles, "datasets", missing)
	}

	entries := archiver.EntriesForPairs(res.Pairs, archiver.LayoutFolder)
	total := archiver.TotalSize(res.Pairs)

	if s.cfg.ArchiveMemoryLimit > 0 && total > s.cfg.ArchiveMemoryLimit {
		archive, err := archiver.BuildArchiveFile(ctx, s.store.Fs(), s.cfg.TempDir, entries)
		if err != nil {
			respondError(c, err)
			return
		}
		defer func() {
			if err := archive.Close(); err != nil {
				logger.Warn("failed to remove temporary archive", "path", archive.Name(), "error", err)
			}
		}()

		logger.Info(messages.MsgStreamingArchive, "sources", humanize.Bytes(uint64(total)), "archive", humanize.Bytes(uint64(archive.Size())))
		c.DataFromReader(http.StatusOK, archive.Size(), contentTypeZip, archive, map[string]string{
			"Content-Disposition": attachment(allDatasetsArchive),
		})
		return
	}

	content, err := archiver.BuildArchive(ctx, s.store.Fs(), entries)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", attachment(allDatasetsArchive))
	c.Data(http.StatusOK, contentTypeZip, content)
}

func (s *Server) handleDeleteAll(c *gin.Context) {
	count, err := s.store.DeleteAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	requestLogger(c).Info(messages.MsgDatasetsDeleted, "count", count)
	c.JSON(http.StatusOK, gin.H{"message": messages.MsgAllDatasetsDeleted})
}
