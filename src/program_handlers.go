package main

import (
	"net/http"

	"hbs/src/controllers"
	"hbs/src/types"

	"github.com/gin-gonic/gin"
)

func programHandlers(g *gin.RouterGroup, bc *controllers.BookingController) *gin.RouterGroup {
	g.
		GET("/programs", func(ctx *gin.Context) {
			var query types.LanguageQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			programs, err := bc.ListPrograms(rctx, query.Lang)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": programs, "count": len(programs)})
		}).
		GET("/programs/:slug", func(ctx *gin.Context) {
			var params types.ProgramRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var query types.LanguageQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rctx, cancel := remoteContext(ctx)
			defer cancel()
			program, err := bc.GetProgram(rctx, params.Slug, query.Lang)
			if err != nil {
				abortWithError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": program})
		})
	return g
}
