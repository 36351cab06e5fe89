package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowIndex lists posts by the authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	page, err := s.feedService.FollowFeed(c.UserContext(), currentUserID(c), c.Query("page"))
	if err != nil {
		return s.respondError(c, err)
	}
	return s.render(c, "posts/follow", fiber.Map{
		"title":    "Following",
		"page_obj": page,
	})
}

func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	author, err := s.followService.Follow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow removes the subscription. Unfollowing someone the viewer
// does not follow is a 404.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	author, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}
