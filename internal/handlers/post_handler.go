package handlers

import (
	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service  *services.PostService
	validate *validator.Validate
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the post routes with the Fiber app.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	auth := middleware.RequireAuth()

	router.Get("/", auth, h.HandleHome)
	router.Get("/home", auth, h.HandleHome)
	router.Get("/user/:username", h.HandleUserPosts)

	router.Post("/post/new", auth, h.HandleCreatePost)
	router.Get("/post/:id", h.HandleGetPost)
	router.Get("/post/:id/update", auth, h.HandleEditPost)
	router.Post("/post/:id/update", auth, h.HandleUpdatePost)
	router.Post("/post/:id/delete", auth, h.HandleDeletePost)
}

// HandleHome lists all posts, newest first.
func (h *PostHandler) HandleHome(c *fiber.Ctx) error {
	page, err := h.service.ListPosts(c.UserContext(), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// HandleUserPosts lists the posts of one author.
func (h *PostHandler) HandleUserPosts(c *fiber.Ctx) error {
	page, user, err := h.service.ListPostsByUsername(c.UserContext(), c.Params("username"), pageQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":  user,
		"posts": page,
	})
}

// HandleCreatePost creates a post authored by the current user.
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var req services.PostInput
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	post, err := h.service.CreatePost(c.UserContext(), middleware.CurrentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Your post has been created!",
		"post":    post,
	})
}

// HandleGetPost returns a single post. can_modify tells the caller whether
// the edit and delete actions apply to them.
func (h *PostHandler) HandleGetPost(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := h.service.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(postView(post, middleware.CurrentUser(c)))
}

// HandleEditPost returns a post for editing, only to its author.
func (h *PostHandler) HandleEditPost(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	post, err := h.service.EditablePost(c.UserContext(), middleware.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(postView(post, middleware.CurrentUser(c)))
}

// HandleUpdatePost changes the title and content of a post. Missing posts
// and non-owners are rejected before the body is looked at.
func (h *PostHandler) HandleUpdatePost(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if _, err := h.service.EditablePost(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err)
	}

	var req services.PostInput
	if ok, err := bindAndValidate(c, h.validate, &req); !ok {
		return err
	}

	post, err := h.service.UpdatePost(c.UserContext(), middleware.CurrentUser(c), id, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Your post has been updated!",
		"post":    post,
	})
}

// HandleDeletePost deletes a post.
func (h *PostHandler) HandleDeletePost(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.DeletePost(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Your post has been deleted!",
	})
}

func postView(post *models.Post, viewer *models.User) fiber.Map {
	return fiber.Map{
		"post":       post,
		"can_modify": services.CanModify(post, viewer),
	}
}
