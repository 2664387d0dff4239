package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gradebook/backend/internal/authz"
	"gradebook/backend/internal/dto"
	"gradebook/backend/internal/model"
	"gradebook/backend/internal/repository"
	pkgerrors "gradebook/backend/pkg/errors"
)

// ── 用户管理模块业务错误 ──

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrInvalidRole    = errors.New("role must be one of ADMIN, INSTRUCTOR, STUDENT")
)

// UserService 用户管理业务接口（管理员专用）
// 每个操作在访问存储层前都以调用者的真实角色过一次授权闸门，
// 不依赖路由层的角色中间件兜底
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, callerRole model.Role) (*dto.UserSummary, error)
	GetByID(ctx context.Context, id string, callerRole model.Role) (*dto.UserDetail, error)
	List(ctx context.Context, callerRole model.Role) ([]dto.UserSummary, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerRole model.Role) (*dto.UserSummary, error)
	Delete(ctx context.Context, id, callerID string, callerRole model.Role) error
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerRole model.Role) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row      int
	Username string
	Password string
	Role     string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerRole model.Role) (*dto.UserSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpUserCreate, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}

	// 唯一性由数据库约束裁决：并发同名创建恰好一个成功
	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	summary := dto.ToUserSummary(user)
	return &summary, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string, callerRole model.Role) (*dto.UserDetail, error) {
	if d := authz.Authorize(callerRole, authz.OpUserRead, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return loadUserDetail(ctx, s.repo, user)
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, callerRole model.Role) ([]dto.UserSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpUserList, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	users, err := s.repo.User.List(ctx)
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		result = append(result, dto.ToUserSummary(&users[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerRole model.Role) (*dto.UserSummary, error) {
	if d := authz.Authorize(callerRole, authz.OpUserUpdate, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 应用更新字段（仅更新非 nil 字段）
	if req.Username != nil && *req.Username != user.Username {
		user.Username = *req.Username
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if req.Role != nil {
		role, ok := model.ParseRole(*req.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		user.Role = role
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	summary := dto.ToUserSummary(user)
	return &summary, nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id, callerID string, callerRole model.Role) error {
	// 角色与自删保护同走统一闸门
	if d := authz.Authorize(callerRole, authz.OpUserDelete, id, callerID); !d.Allowed {
		return denyError(d)
	}

	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("import file has no data rows (first row is the header)")
	ErrImportTooManyRows = fmt.Errorf("import exceeds the limit of %d rows", maxImportRows)
	ErrImportBadHeader   = errors.New("import header is missing required columns (username/password/role)")
)

// ParseImportFile 解析批量导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, errors.New("unable to parse the Excel file")
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.New("unable to read the worksheet")
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 || colIndex["password"] < 0 || colIndex["role"] < 0 {
		return nil, ErrImportBadHeader
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{Row: i + 1}

		if idx := colIndex["username"]; idx < len(row) {
			item.Username = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["password"]; idx < len(row) {
			item.Password = strings.TrimSpace(row[idx])
		}
		if idx := colIndex["role"]; idx < len(row) {
			item.Role = strings.TrimSpace(row[idx])
		}

		// 跳过全空行
		if item.Username == "" && item.Password == "" && item.Role == "" {
			continue
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"username": -1,
		"password": -1,
		"role":     -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch lower {
		case "username", "用户名":
			idx["username"] = i
		case "password", "密码":
			idx["password"] = i
		case "role", "角色":
			idx["role"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

// ImportUsers 两阶段导入：先离库校验全部行，再在单个事务中写入，
// 任一写入失败则整体回滚
func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerRole model.Role) (*dto.ImportUserResponse, error) {
	if d := authz.Authorize(callerRole, authz.OpUserImport, "", ""); !d.Allowed {
		return nil, denyError(d)
	}

	resp := &dto.ImportUserResponse{Total: len(rows)}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		row  ImportUserRow
		role model.Role
		hash []byte
	}
	var validRows []validatedRow
	seen := make(map[string]bool)

	for _, row := range rows {
		if row.Username == "" || row.Password == "" || row.Role == "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportUserError{
				Row: row.Row, Reason: "required field is empty",
			})
			continue
		}

		role, ok := model.ParseRole(row.Role)
		if !ok {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportUserError{
				Row: row.Row, Reason: fmt.Sprintf("unknown role: %s", row.Role),
			})
			continue
		}

		// 文件内部去重；已入库的重名由事务阶段的唯一约束裁决
		if seen[row.Username] {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportUserError{
				Row: row.Row, Reason: fmt.Sprintf("duplicate username in file: %s", row.Username),
			})
			continue
		}
		seen[row.Username] = true

		if _, err := s.repo.User.GetByUsername(ctx, row.Username); err == nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportUserError{
				Row: row.Row, Reason: fmt.Sprintf("username already exists: %s", row.Username),
			})
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(row.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportUserError{
				Row: row.Row, Reason: "password hashing failed",
			})
			continue
		}

		validRows = append(validRows, validatedRow{row: row, role: role, hash: hash})
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户
	if len(validRows) > 0 {
		tx, err := s.repo.BeginTx(ctx)
		if err != nil {
			s.logger.Error("开启事务失败", zap.Error(err))
			return nil, err
		}
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
				panic(r)
			}
		}()

		txRepo := s.repo.WithTx(tx)

		for _, vr := range validRows {
			user := &model.User{
				Username:     vr.row.Username,
				PasswordHash: string(vr.hash),
				Role:         vr.role,
			}

			if err := txRepo.User.Create(ctx, user); err != nil {
				// 事务中任一写入失败则全部回滚
				tx.Rollback()
				s.logger.Error("导入用户写入失败，事务回滚",
					zap.Int("row", vr.row.Row), zap.Error(err))
				return nil, fmt.Errorf("row %d failed to persist, import rolled back: %w", vr.row.Row, err)
			}
			resp.Success++
		}

		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return resp, nil
}
