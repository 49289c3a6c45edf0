package handler

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
	errors2 "github.com/solutions/mock-interview/internal/protodef/errors"
	"github.com/solutions/mock-interview/internal/protodef/form"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/cloud"
)

// multipartOverhead multipart 表单除文件外的额外字节。
const multipartOverhead = 1 << 20

type ResumeAccountInterface interface {
	GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error)

	// SaveResume 整体替换账号上的简历
	SaveResume(xl *xlog.Logger, id string, resume *model.ResumeDo) error
}

// FileLocator 本地存储按 key 查找文件。
type FileLocator interface {
	Path(key string) (string, error)
}

type ResumeApiHandler struct {
	Account ResumeAccountInterface
	Storage cloud.Storage
	Conf    utils.StorageConfig
	now     func() time.Time
}

func NewResumeApiHandler(account ResumeAccountInterface, storage cloud.Storage, conf utils.StorageConfig) *ResumeApiHandler {
	return &ResumeApiHandler{Account: account, Storage: storage, Conf: conf, now: time.Now}
}

func (h *ResumeApiHandler) GetResume(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	userID := c.GetString(model.UserIDContextKey)
	account, err := h.Account.GetAccountByID(xl, userID)
	if err != nil {
		writeError(c, xl, err)
		return
	}
	if account.Resume == nil {
		writeResponseError(c, xl, model.NewResponseErrorNoSuchResume())
		return
	}
	writeSuccess(c, xl, account.Resume)
}

// SaveResume 保存手动填写的简历，保留已上传的文件。
func (h *ResumeApiHandler) SaveResume(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	userID := c.GetString(model.UserIDContextKey)
	args := form.ResumeForm{}
	if err := c.ShouldBindJSON(&args); err != nil {
		xl.Infof("SaveResume: invalid args in body, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	if err := args.Validate(); err != nil {
		writeResponseError(c, xl, model.NewResponseErrorValidation(err))
		return
	}
	account, err := h.Account.GetAccountByID(xl, userID)
	if err != nil {
		writeError(c, xl, err)
		return
	}
	resume := args.Merge(account.Resume, h.now())
	if err := h.Account.SaveResume(xl, userID, resume); err != nil {
		writeError(c, xl, err)
		return
	}
	xl.Infof("user %s saved resume, %d skills", userID, len(resume.Skills))
	writeSuccess(c, xl, resume)
}

// UploadResume 上传简历文件，表单字段为 file。
func (h *ResumeApiHandler) UploadResume(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	userID := c.GetString(model.UserIDContextKey)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Conf.MaxUploadBytes+multipartOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeResponseError(c, xl, model.NewResponseErrorUploadTooLarge())
			return
		}
		xl.Infof("UploadResume: no file in form, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	if header.Size > h.Conf.MaxUploadBytes {
		xl.Infof("UploadResume: file %s of %d bytes exceeds limit", header.Filename, header.Size)
		writeResponseError(c, xl, model.NewResponseErrorUploadTooLarge())
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !h.allowed(ext) {
		writeResponseError(c, xl, model.NewResponseErrorUnsupportedFileType())
		return
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = header.Header.Get("Content-Type")
	}

	account, err := h.Account.GetAccountByID(xl, userID)
	if err != nil {
		writeError(c, xl, err)
		return
	}
	file, err := header.Open()
	if err != nil {
		xl.Errorf("UploadResume: open uploaded file failed, error %v", err)
		writeResponseError(c, xl, model.NewResponseErrorBadRequest())
		return
	}
	defer file.Close()

	now := h.now()
	key := cloud.ResumeKey(h.Conf.Prefix, userID, header.Filename, now)
	url, err := h.Storage.Put(c.Request.Context(), key, contentType, file, header.Size)
	if err != nil {
		writeError(c, xl, errors2.NewServerError(errors2.ServerErrorStorageUploadFail, err.Error()))
		return
	}

	resume := account.Resume
	if resume == nil {
		resume = &model.ResumeDo{Skills: []string{}}
	}
	resume.FileURL = url
	resume.FileName = filepath.Base(header.Filename)
	resume.FileSize = header.Size
	resume.UpdatedTime = now
	if !resume.HasManualFields() {
		resume.Source = model.ResumeSourceUpload
	}
	if err := h.Account.SaveResume(xl, userID, resume); err != nil {
		writeError(c, xl, errors2.NewServerError(errors2.ServerErrorMongoOpFail, err.Error()))
		return
	}
	xl.Infof("user %s uploaded resume %s to %s", userID, resume.FileName, key)
	writeSuccess(c, xl, resume)
}

func (h *ResumeApiHandler) allowed(ext string) bool {
	if ext == "" {
		return false
	}
	for _, a := range h.Conf.AllowedExts {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// ServeResumeFile 下载本地存储中的简历文件，只允许访问自己目录下的文件。
func (h *ResumeApiHandler) ServeResumeFile(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	userID := c.GetString(model.UserIDContextKey)
	locator, ok := h.Storage.(FileLocator)
	if !ok {
		writeResponseError(c, xl, model.NewResponseErrorNotFound())
		return
	}
	key := path.Clean(strings.TrimPrefix(c.Param("filepath"), "/"))
	owner := path.Join(h.Conf.Prefix, userID) + "/"
	if userID == "" || !strings.HasPrefix(key, owner) {
		xl.Infof("user %s requested file %s outside %s", userID, key, owner)
		writeResponseError(c, xl, model.NewResponseErrorNotFound())
		return
	}
	p, err := locator.Path(key)
	if err != nil {
		xl.Infof("resume file %s not available, error %v", key, err)
		writeResponseError(c, xl, model.NewResponseErrorNotFound())
		return
	}
	c.FileAttachment(p, path.Base(key))
}
